// Package counter keeps the named counters that buttons step up and down
package counter

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/gesture"
)

// Counter is a single named value
type Counter struct {
	Name    string
	Step    int
	Value   int
	File    string
	Pattern string
}

func fromConfig(c config.Counter) *Counter {
	step := c.Step
	if step == 0 {
		step = 1
	}
	return &Counter{Name: c.Name, Step: step, Value: c.Value, File: c.File, Pattern: c.Pattern}
}

// Render returns the file contents for the current value: the pattern with
// every {} replaced, or the bare value when there is no pattern
func (c *Counter) Render() string {
	v := strconv.Itoa(c.Value)
	if c.Pattern == "" {
		return v
	}
	return strings.ReplaceAll(c.Pattern, "{}", v)
}

// Delta returns how much a gesture moves the counter
func (c *Counter) Delta(g gesture.Gesture) int {
	switch g.Type {
	case gesture.GesturePress:
		return c.Step
	case gesture.GestureLongPress, gesture.GestureHeld:
		return -c.Step
	default:
		return 0
	}
}

func (c *Counter) write() error {
	if c.File == "" {
		return nil
	}
	if err := os.WriteFile(c.File, []byte(c.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write counter %q to %s: %w", c.Name, c.File, err)
	}
	return nil
}

// ChangeHandler is called with the counter name and its new value
type ChangeHandler func(name string, value int)

// ErrorHandler is called when a counter file cannot be written
type ErrorHandler func(name string, err error)

// Registry holds counters by name
type Registry struct {
	mu            sync.Mutex
	counters      map[string]*Counter
	handlers      []ChangeHandler
	errorHandlers []ErrorHandler
	seq           uint64 // bumped on every change

	// notifyMu orders change delivery; delivered holds the seq of the last
	// change handed to the handlers, per counter
	notifyMu  sync.Mutex
	delivered map[string]uint64
}

// NewRegistry creates a registry from configured counters
func NewRegistry(cfgs []config.Counter) *Registry {
	r := &Registry{
		counters:  make(map[string]*Counter, len(cfgs)),
		delivered: make(map[string]uint64),
	}
	for _, c := range cfgs {
		r.counters[c.Name] = fromConfig(c)
	}
	return r
}

// OnChange registers a handler called after every value change. Handlers see
// each counter's values in order; a value overtaken by a newer one before it
// could be delivered is skipped.
func (r *Registry) OnChange(h ChangeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// OnWriteError registers a handler called when a counter file write fails
func (r *Registry) OnWriteError(h ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandlers = append(r.errorHandlers, h)
}

// Apply steps the named counter for a gesture and returns its new value
func (r *Registry) Apply(name string, g gesture.Gesture) (int, error) {
	return r.change(name, func(c *Counter) int { return c.Delta(g) })
}

// Rotate moves the named counter by step for every dial tick. Negative ticks
// count down.
func (r *Registry) Rotate(name string, ticks int) (int, error) {
	return r.change(name, func(c *Counter) int { return c.Step * ticks })
}

// Add moves the named counter by delta and returns its new value. A failed
// file write is logged and reported; the value still changes.
func (r *Registry) Add(name string, delta int) (int, error) {
	return r.change(name, func(*Counter) int { return delta })
}

func (r *Registry) change(name string, delta func(*Counter) int) (int, error) {
	r.mu.Lock()
	c, ok := r.counters[name]
	if !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("unknown counter %q", name)
	}
	c.Value += delta(c)
	r.seq++
	value, seq := c.Value, r.seq
	err := c.write()
	handlers := append([]ChangeHandler(nil), r.handlers...)
	errorHandlers := append([]ErrorHandler(nil), r.errorHandlers...)
	r.mu.Unlock()

	if err != nil {
		r.writeFailed(name, err, errorHandlers)
	}
	r.notify(name, value, seq, handlers)
	return value, nil
}

func (r *Registry) notify(name string, value int, seq uint64, handlers []ChangeHandler) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	if seq <= r.delivered[name] {
		return
	}
	r.delivered[name] = seq
	for _, h := range handlers {
		h(name, value)
	}
}

func (r *Registry) writeFailed(name string, err error, handlers []ErrorHandler) {
	log.WithError(err).WithField("counter", name).Error("Counter file write failed")
	for _, h := range handlers {
		h(name, err)
	}
}

// Value returns the current value of the named counter
func (r *Registry) Value(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// Names returns the counter names in sorted order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sync writes every counter's current value to its file
func (r *Registry) Sync() {
	r.mu.Lock()
	failed := make(map[string]error)
	for name, c := range r.counters {
		if err := c.write(); err != nil {
			failed[name] = err
		}
	}
	errorHandlers := append([]ErrorHandler(nil), r.errorHandlers...)
	r.mu.Unlock()

	for name, err := range failed {
		r.writeFailed(name, err, errorHandlers)
	}
}

// Reload replaces the counter settings. Counters that survive keep their
// running value; new counters start from the configured one.
func (r *Registry) Reload(cfgs []config.Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counters := make(map[string]*Counter, len(cfgs))
	for _, cfg := range cfgs {
		c := fromConfig(cfg)
		if old, ok := r.counters[cfg.Name]; ok {
			c.Value = old.Value
		}
		counters[cfg.Name] = c
	}
	r.counters = counters
}
