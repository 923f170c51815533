package usbipd

import (
	"encoding/json"
	"strings"
)

// State is the closed set of device sharing states this tool understands.
// Classification happens once during parsing; consumers switch on the enum
// instead of re-inspecting the raw text.
type State int

const (
	StateUnknown State = iota
	StateAttached
	StateShared
	StateNotShared
)

// String returns the canonical label for the state category.
func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateShared:
		return "shared"
	case StateNotShared:
		return "not shared"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the canonical label.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Device is one row of `usbipd list` output. Records carry no identity
// beyond BusID and live only until the next listing.
type Device struct {
	BusID     string `json:"bus_id"`
	VIDPID    string `json:"vid_pid"`
	Name      string `json:"name"`
	StateText string `json:"state"`
	State     State  `json:"category"`
}

// classifyState maps the tool's free-text status to a State. "not shared"
// and "not bound" must be tested before "shared" or they would never match.
func classifyState(text string) State {
	t := strings.ToLower(text)

	switch {
	case strings.Contains(t, "attached"):
		return StateAttached
	case strings.Contains(t, "not shared"), strings.Contains(t, "not bound"):
		return StateNotShared
	case strings.Contains(t, "shared"):
		return StateShared
	default:
		return StateUnknown
	}
}

func newDevice(busID, vidpid, name, stateText string) Device {
	return Device{
		BusID:     busID,
		VIDPID:    vidpid,
		Name:      name,
		StateText: stateText,
		State:     classifyState(stateText),
	}
}
