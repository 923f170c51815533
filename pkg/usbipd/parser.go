package usbipd

import (
	"regexp"
	"strings"
)

// usbipd's column widths are not stable across versions, so the parser
// anchors on recognizable field shapes first (busid, vid:pid) and falls back
// to splitting on runs of two-or-more spaces.
var (
	deviceLineRE  = regexp.MustCompile(`^(\d+-\d+(?:\.\d+)*)\s+([0-9a-fA-F]{4}:[0-9a-fA-F]{4})\s+(.+?)\s{2,}(\S.*)$`)
	columnSplitRE = regexp.MustCompile(`\s{2,}`)
	busIDRE       = regexp.MustCompile(`^\d+-\d+(?:\.\d+)*$`)
	vidpidRE      = regexp.MustCompile(`^[0-9a-fA-F]{4}:[0-9a-fA-F]{4}$`)
)

// ParseDevices converts raw `usbipd list` output into Device records, in the
// order the tool printed them. Input with no recognizable header yields an
// empty list, and rows matching neither strategy are dropped; the format is
// owned by an external tool, so this is a best-effort parser, never an error.
func ParseDevices(text string) []Device {
	lines := strings.Split(text, "\n")

	header := -1

	for i, line := range lines {
		if strings.Contains(strings.ToUpper(line), "BUSID") {
			header = i
			break
		}
	}

	if header == -1 {
		return nil
	}

	var devices []Device

	for _, line := range lines[header+1:] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "=") {
			continue
		}

		if d, ok := parseDeviceLine(line); ok {
			devices = append(devices, d)
		}
	}

	return devices
}

func parseDeviceLine(line string) (Device, bool) {
	if m := deviceLineRE.FindStringSubmatch(line); m != nil {
		return newDevice(m[1], m[2], strings.TrimSpace(m[3]), strings.TrimSpace(m[4])), true
	}

	// Degraded fallback: column split on 2+ spaces, first four parts in
	// order. The shape-validated fields still have to look right or the
	// row is dropped rather than emitted half-empty.
	parts := columnSplitRE.Split(line, -1)
	if len(parts) < 4 {
		return Device{}, false
	}

	busID := strings.TrimSpace(parts[0])
	vidpid := strings.TrimSpace(parts[1])
	name := strings.TrimSpace(parts[2])
	stateText := strings.TrimSpace(parts[3])

	if !busIDRE.MatchString(busID) || !vidpidRE.MatchString(vidpid) || name == "" || stateText == "" {
		return Device{}, false
	}

	return newDevice(busID, vidpid, name, stateText), true
}
