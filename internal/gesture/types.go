package gesture

import (
	"fmt"
	"strconv"
)

// GestureType represents the type of gesture detected
type GestureType int

const (
	GesturePress GestureType = iota
	GestureLongPress
	GestureHeld
)

func (g GestureType) String() string {
	switch g {
	case GesturePress:
		return "press"
	case GestureLongPress:
		return "long_press"
	case GestureHeld:
		return "held"
	default:
		return fmt.Sprintf("unknown(%d)", g)
	}
}

// Gesture represents a detected gesture on a single button
type Gesture struct {
	Type   GestureType
	Button int
	Repeat int // 1-based tick count for GestureHeld, 0 otherwise
}

func (g Gesture) String() string {
	if g.Type == GestureHeld {
		return fmt.Sprintf("%s(%d)#%d", g.Type, g.Button, g.Repeat)
	}
	return fmt.Sprintf("%s(%d)", g.Type, g.Button)
}

// NewPressGesture creates a short press gesture for a button
func NewPressGesture(button int) Gesture {
	return Gesture{Type: GesturePress, Button: button}
}

// NewLongPressGesture creates a long press gesture for a button
func NewLongPressGesture(button int) Gesture {
	return Gesture{Type: GestureLongPress, Button: button}
}

// NewHeldGesture creates the repeat-th held tick for a button
func NewHeldGesture(button, repeat int) Gesture {
	return Gesture{Type: GestureHeld, Button: button, Repeat: repeat}
}

// Key returns the mapping lookup key, e.g. "long_press:3". Held ticks of the
// same button share one key regardless of Repeat.
func (g Gesture) Key() string {
	return g.Type.String() + ":" + strconv.Itoa(g.Button)
}
