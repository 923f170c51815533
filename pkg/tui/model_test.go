package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiyflowers/wslusb/pkg/runner/mockrunner"
	"github.com/aiyflowers/wslusb/pkg/usbipd"
)

func testDevices() []usbipd.Device {
	return usbipd.ParseDevices(
		"BUSID  VID:PID    DEVICE                       STATE\n" +
			"1-1    046d:c52b  Logitech USB Input Device    Shared\n" +
			"1-2    8087:0026  Intel Wireless Bluetooth     Not shared\n")
}

func newTestModel(t *testing.T, stub *mockrunner.Runner) *model {
	t.Helper()

	m := newModel(usbipd.New(stub, usbipd.ClientConfig{}))
	updated, _ := m.Update(devicesMsg{devices: testDevices()})

	res, ok := updated.(*model)
	require.True(t, ok)

	return res
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDeviceAt(t *testing.T) {
	devices := testDevices()
	require.Len(t, devices, 2)

	d, ok := deviceAt(devices, 0)
	assert.True(t, ok)
	assert.Equal(t, "1-1", d.BusID)

	d, ok = deviceAt(devices, 1)
	assert.True(t, ok)
	assert.Equal(t, "1-2", d.BusID)

	_, ok = deviceAt(devices, 2)
	assert.False(t, ok)

	_, ok = deviceAt(devices, -1)
	assert.False(t, ok)

	_, ok = deviceAt(nil, 0)
	assert.False(t, ok)
}

func TestDevicesMsgPopulatesTable(t *testing.T) {
	m := newTestModel(t, mockrunner.New())

	assert.False(t, m.busy)
	assert.Len(t, m.devices, 2)
	assert.Len(t, m.table.Rows(), 2)
	assert.Contains(t, m.status, "2 USB device(s)")
}

func TestDevicesMsgError(t *testing.T) {
	m := newModel(usbipd.New(mockrunner.New(), usbipd.ClientConfig{}))

	updated, _ := m.Update(devicesMsg{err: errors.New("usbipd was not found on PATH")})
	res := updated.(*model)

	assert.False(t, res.busy)
	assert.Equal(t, statusError, res.statusKind)
	assert.Contains(t, res.status, "not found")
}

func TestMutatingActionsRequireConfirmation(t *testing.T) {
	stub := mockrunner.New()
	m := newTestModel(t, stub)

	updated, cmd := m.Update(key("b"))
	res := updated.(*model)

	assert.Nil(t, cmd, "no command may run before confirmation")
	assert.Equal(t, actionBindAttach, res.pending)
	assert.Equal(t, "1-1", res.target.BusID)
	assert.Zero(t, stub.CallCount())
}

func TestConfirmationDeclinedCancels(t *testing.T) {
	stub := mockrunner.New()
	m := newTestModel(t, stub)

	updated, _ := m.Update(key("d"))
	res := updated.(*model)
	require.Equal(t, actionDetach, res.pending)

	updated, cmd := res.Update(key("n"))
	res = updated.(*model)

	assert.Nil(t, cmd)
	assert.Equal(t, actionNone, res.pending)
	assert.Zero(t, stub.CallCount())
}

func TestConfirmationAcceptedRunsOperation(t *testing.T) {
	stub := mockrunner.New(mockrunner.Succeed("detached"))
	m := newTestModel(t, stub)

	updated, _ := m.Update(key("d"))
	res := updated.(*model)

	updated, cmd := res.Update(key("y"))
	res = updated.(*model)
	require.NotNil(t, cmd)
	assert.True(t, res.busy)

	msg := cmd()
	dm, ok := msg.(detachMsg)
	require.True(t, ok)
	assert.Equal(t, "1-1", dm.busID)
	assert.True(t, dm.result.Succeeded)
	assert.Equal(t, 1, stub.CallCount())
}

func TestBusyModelIgnoresActionKeys(t *testing.T) {
	stub := mockrunner.New()
	m := newTestModel(t, stub)
	m.busy = true

	for _, k := range []string{"b", "d", "i", "r"} {
		updated, cmd := m.Update(key(k))
		res := updated.(*model)

		assert.Nil(t, cmd, "key %q must be ignored while busy", k)
		assert.Equal(t, actionNone, res.pending, "key %q must be ignored while busy", k)
	}

	assert.Zero(t, stub.CallCount())
}

func TestBindAttachOutcomeRendering(t *testing.T) {
	t.Run("partial success is reported distinctly", func(t *testing.T) {
		m := newTestModel(t, mockrunner.New())

		updated, cmd := m.Update(bindAttachMsg{
			busID: "1-1",
			result: usbipd.BindAttachResult{
				Outcome:       usbipd.OutcomePartial,
				AttachMessage: "WSL is not running",
			},
		})
		res := updated.(*model)

		assert.Equal(t, statusWarn, res.noticeKind)
		assert.Contains(t, res.notice, "bound")
		assert.Contains(t, res.notice, "WSL is not running")
		assert.NotNil(t, cmd, "device list must be re-fetched after the sequence")
		assert.True(t, res.busy)
	})

	t.Run("failure", func(t *testing.T) {
		m := newTestModel(t, mockrunner.New())

		updated, cmd := m.Update(bindAttachMsg{
			busID:  "1-1",
			result: usbipd.BindAttachResult{Outcome: usbipd.OutcomeFailed, BindMessage: "access denied"},
		})
		res := updated.(*model)

		assert.Equal(t, statusError, res.noticeKind)
		assert.NotNil(t, cmd, "list is re-fetched on failure too")
	})

	t.Run("success", func(t *testing.T) {
		m := newTestModel(t, mockrunner.New())

		updated, _ := m.Update(bindAttachMsg{
			busID:  "1-1",
			result: usbipd.BindAttachResult{Outcome: usbipd.OutcomeSucceeded},
		})
		res := updated.(*model)

		assert.Equal(t, statusSuccess, res.noticeKind)
		assert.Contains(t, res.notice, "attached to WSL")
	})
}

func TestInstallAlreadyPresent(t *testing.T) {
	m := newTestModel(t, mockrunner.New())

	updated, cmd := m.Update(installMsg{result: usbipd.InstallResult{Status: usbipd.InstallAlreadyPresent}})
	res := updated.(*model)

	assert.Nil(t, cmd, "nothing to refresh when nothing was installed")
	assert.False(t, res.busy)
	assert.Contains(t, res.notice, "already installed")
}

func TestViewRendersDeviceTableAndHelp(t *testing.T) {
	m := newTestModel(t, mockrunner.New())

	view := m.View()
	assert.Contains(t, view, "wslusb")
	assert.Contains(t, view, "1-1")
	assert.Contains(t, view, "Logitech USB Input Device")
	assert.Contains(t, view, "b bind+attach")
}

func TestViewShowsConfirmPrompt(t *testing.T) {
	m := newTestModel(t, mockrunner.New())

	updated, _ := m.Update(key("b"))
	res := updated.(*model)

	view := res.View()
	assert.Contains(t, view, "[y/n]")
	assert.Contains(t, view, "1-1")
}
