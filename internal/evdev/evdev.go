// Package evdev reads button edges from a Linux input device
package evdev

import "errors"

// ErrUnsupported is returned on systems without evdev
var ErrUnsupported = errors.New("evdev input is only supported on Linux")

// Key event values
const (
	ValueUp     int32 = 0
	ValueDown   int32 = 1
	ValueRepeat int32 = 2
)

// Edge is a button going down or up
type Edge struct {
	Button int
	Down   bool
}

// Rotation is a dial turning by Ticks detents. Negative ticks turn down.
type Rotation struct {
	Counter string
	Ticks   int
}

// DeviceInfo describes an input device node
type DeviceInfo struct {
	Path string
	Name string
}

// Translate maps a key event to a button edge. Autorepeat events and codes
// missing from keymap are dropped.
func Translate(code uint16, value int32, keymap map[uint16]int) (Edge, bool) {
	button, ok := keymap[code]
	if !ok {
		return Edge{}, false
	}

	switch value {
	case ValueDown:
		return Edge{Button: button, Down: true}, true
	case ValueUp:
		return Edge{Button: button}, true
	default:
		return Edge{}, false
	}
}

// TranslateRel maps a relative axis event to a dial rotation. Codes missing
// from dials and zero movement are dropped.
func TranslateRel(code uint16, value int32, dials map[uint16]string) (Rotation, bool) {
	counter, ok := dials[code]
	if !ok || value == 0 {
		return Rotation{}, false
	}
	return Rotation{Counter: counter, Ticks: int(value)}, true
}
