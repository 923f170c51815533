package usbipd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = `Connected devices:

BUSID  VID:PID    DEVICE                                    STATE
1-1    046d:c52b  Logitech USB Input Device                 Shared
1-2    8087:0026  Intel(R) Wireless Bluetooth(R)            Not shared
2-4    0781:5591  USB Mass Storage Device                   Attached

Persisted devices:
`

func TestParseDevices(t *testing.T) {
	t.Run("well-formed listing", func(t *testing.T) {
		devices := ParseDevices(sampleListing)
		require.Len(t, devices, 3)

		assert.Equal(t, "1-1", devices[0].BusID)
		assert.Equal(t, "046d:c52b", devices[0].VIDPID)
		assert.Equal(t, "Logitech USB Input Device", devices[0].Name)
		assert.Equal(t, "Shared", devices[0].StateText)
		assert.Equal(t, StateShared, devices[0].State)

		assert.Equal(t, "1-2", devices[1].BusID)
		assert.Equal(t, StateNotShared, devices[1].State)

		assert.Equal(t, "2-4", devices[2].BusID)
		assert.Equal(t, StateAttached, devices[2].State)
	})

	t.Run("order preserved and formats valid", func(t *testing.T) {
		devices := ParseDevices(sampleListing)
		require.Len(t, devices, 3)

		for i, d := range devices {
			assert.Regexp(t, `^\d+-\d+(\.\d+)*$`, d.BusID, "device %d", i)
			assert.Regexp(t, `^[0-9a-fA-F]{4}:[0-9a-fA-F]{4}$`, d.VIDPID, "device %d", i)
			assert.NotEmpty(t, d.Name)
			assert.NotEmpty(t, d.StateText)
		}

		assert.Equal(t, []string{"1-1", "1-2", "2-4"}, []string{devices[0].BusID, devices[1].BusID, devices[2].BusID})
	})

	t.Run("no header yields empty list", func(t *testing.T) {
		devices := ParseDevices("some banner text\nwith no table at all\n")
		assert.Empty(t, devices)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ParseDevices(""))
	})

	t.Run("header is found case-insensitively", func(t *testing.T) {
		devices := ParseDevices("busid  vid:pid  device  state\n1-1    046d:c52b  Mouse    Shared\n")
		require.Len(t, devices, 1)
		assert.Equal(t, "1-1", devices[0].BusID)
	})

	t.Run("separator and blank lines skipped", func(t *testing.T) {
		listing := "BUSID  VID:PID  DEVICE  STATE\n" +
			"------------------------------\n" +
			"==============================\n" +
			"\n" +
			"1-1    046d:c52b  Mouse    Shared\n"
		devices := ParseDevices(listing)
		require.Len(t, devices, 1)
	})

	t.Run("unparseable row dropped without affecting neighbors", func(t *testing.T) {
		listing := "BUSID  VID:PID  DEVICE  STATE\n" +
			"1-1    046d:c52b  Mouse    Shared\n" +
			"complete nonsense\n" +
			"2-3    1a2b:3c4d  Keyboard    Attached\n"
		devices := ParseDevices(listing)
		require.Len(t, devices, 2)
		assert.Equal(t, "1-1", devices[0].BusID)
		assert.Equal(t, "2-3", devices[1].BusID)
	})

	t.Run("hierarchical bus ids", func(t *testing.T) {
		devices := ParseDevices("BUSID\n2-1.4.2    dead:beef  Hub Device    Shared\n")
		require.Len(t, devices, 1)
		assert.Equal(t, "2-1.4.2", devices[0].BusID)
	})

	t.Run("name with single spaces kept intact", func(t *testing.T) {
		devices := ParseDevices("BUSID\n1-1    046d:c52b  Logitech USB Input Device    Shared\n")
		require.Len(t, devices, 1)
		assert.Equal(t, "Logitech USB Input Device", devices[0].Name)
		assert.Equal(t, "Shared", devices[0].StateText)
	})

	t.Run("irregular spacing still yields four populated fields", func(t *testing.T) {
		devices := ParseDevices("BUSID\n1-1.2    1234:abcd  Some   Multi Word   Device   Not shared\n")
		require.Len(t, devices, 1)

		d := devices[0]
		assert.Equal(t, "1-1.2", d.BusID)
		assert.Equal(t, "1234:abcd", d.VIDPID)
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.StateText)
	})

	t.Run("fallback rejects malformed shape fields", func(t *testing.T) {
		listing := "BUSID\n" +
			"not-a-busid    zzzz:abcd  Device Name    Shared\n" +
			"x-y    1234:abcd  Device Name    Shared\n"
		assert.Empty(t, ParseDevices(listing))
	})
}

func TestClassifyState(t *testing.T) {
	assert.Equal(t, StateAttached, classifyState("Attached"))
	assert.Equal(t, StateAttached, classifyState("Attached - Ubuntu"))
	assert.Equal(t, StateShared, classifyState("Shared"))
	assert.Equal(t, StateShared, classifyState("Shared (forced)"))
	assert.Equal(t, StateNotShared, classifyState("Not shared"))
	assert.Equal(t, StateNotShared, classifyState("not bound"))
	assert.Equal(t, StateUnknown, classifyState("Persisted"))
	assert.Equal(t, StateUnknown, classifyState(""))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "attached", StateAttached.String())
	assert.Equal(t, "shared", StateShared.String())
	assert.Equal(t, "not shared", StateNotShared.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}
