package action

import (
	"sync"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/gesture"
)

// Mapper maps gestures to key sequences based on configuration
type Mapper struct {
	mu       sync.RWMutex
	bindings map[string][]string // gesture.Key() -> keys
	counters map[int]string      // button index -> counter name
}

// NewMapper creates a new action mapper from configuration
func NewMapper(cfg *config.Config) *Mapper {
	m := &Mapper{}
	m.bindings, m.counters = build(cfg)
	return m
}

func build(cfg *config.Config) (map[string][]string, map[int]string) {
	bindings := make(map[string][]string)
	counters := make(map[int]string)

	for _, btn := range cfg.Buttons {
		if btn.Press != nil {
			bindings[gesture.NewPressGesture(btn.Index).Key()] = btn.Press.Keys
		}
		if btn.LongPress != nil {
			bindings[gesture.NewLongPressGesture(btn.Index).Key()] = btn.LongPress.Keys
		}
		if btn.Held != nil {
			bindings[gesture.NewHeldGesture(btn.Index, 0).Key()] = btn.Held.Keys
		}
		if btn.Counter != "" {
			counters[btn.Index] = btn.Counter
		}
	}
	return bindings, counters
}

// Map returns the key sequence for a gesture, or nil if not mapped.
// Every held tick of a button maps to the same sequence.
func (m *Mapper) Map(g gesture.Gesture) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bindings[g.Key()]
}

// Counter returns the name of the counter driven by a button
func (m *Mapper) Counter(button int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.counters[button]
	return name, ok
}

// Reload updates the mapper with new configuration
func (m *Mapper) Reload(cfg *config.Config) {
	bindings, counters := build(cfg)

	m.mu.Lock()
	m.bindings = bindings
	m.counters = counters
	m.mu.Unlock()
}
