package gesture

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/hid"
)

// binding is the detector owned for one button index
type binding struct {
	id       string
	detector *Detector
	ticks    atomic.Int64 // held ticks in the current press
}

// Engine routes button edges to per-button detectors
type Engine struct {
	onGesture func(Gesture)
	log       *log.Entry

	mu       sync.Mutex
	timing   config.TimingConfig
	bindings map[int]*binding
	pressed  uint16 // mask from the last HID report
	stopped  bool
}

// NewEngine creates a new gesture engine
func NewEngine(timing config.TimingConfig, onGesture func(Gesture), entry *log.Entry) *Engine {
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	return &Engine{
		timing:    timing,
		onGesture: onGesture,
		log:       entry,
		bindings:  make(map[int]*binding),
	}
}

// Start stops the engine once ctx is cancelled
func (e *Engine) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		e.Stop()
	}()
}

// Stop cancels every running press timer. Edges received afterwards are ignored.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	bindings := e.snapshot()
	e.mu.Unlock()

	for _, b := range bindings {
		b.detector.Stop()
	}
}

// Reset cancels every running press without emitting anything and forgets the
// last HID mask. Used when the input device goes away mid-press.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.pressed = 0
	bindings := e.snapshot()
	e.mu.Unlock()

	for _, b := range bindings {
		b.detector.Stop()
	}
}

// ProcessEvent diffs the pressed-button mask of a HID report against the
// previous one and forwards the resulting edges
func (e *Engine) ProcessEvent(event hid.Event) {
	e.mu.Lock()
	prev := e.pressed
	e.pressed = event.ButtonMask
	e.mu.Unlock()

	for _, btn := range hid.MaskButtons(event.ButtonMask &^ prev) {
		e.Press(btn)
	}
	for _, btn := range hid.MaskButtons(prev &^ event.ButtonMask) {
		e.Release(btn)
	}
}

// Press handles a key down edge for button
func (e *Engine) Press(button int) {
	b := e.binding(button)
	if b == nil {
		return
	}
	e.log.WithFields(log.Fields{"button": button, "instance": b.id}).Debug("Key down")
	b.detector.KeyDown()
}

// Release handles a key up edge for button
func (e *Engine) Release(button int) {
	b := e.binding(button)
	if b == nil {
		return
	}
	e.log.WithFields(log.Fields{"button": button, "instance": b.id}).Debug("Key up")
	b.detector.KeyUp()
}

// SetTiming applies new timing to every detector, effective from its next press
func (e *Engine) SetTiming(timing config.TimingConfig) {
	e.mu.Lock()
	e.timing = timing
	bindings := e.snapshot()
	e.mu.Unlock()

	for _, b := range bindings {
		b.detector.Reconfigure(timing.LongPressThreshold(), timing.HeldInterval())
	}
}

// State returns the press state of button, StateIdle if it was never pressed
func (e *Engine) State(button int) State {
	e.mu.Lock()
	b, ok := e.bindings[button]
	e.mu.Unlock()

	if !ok {
		return StateIdle
	}
	return b.detector.State()
}

// Buttons returns the indices that have a detector, in ascending order
func (e *Engine) Buttons() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	buttons := make([]int, 0, len(e.bindings))
	for btn := range e.bindings {
		buttons = append(buttons, btn)
	}
	sort.Ints(buttons)
	return buttons
}

// binding returns the binding for button, creating it on first use. It
// returns nil once the engine is stopped.
func (e *Engine) binding(button int) *binding {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}
	if b, ok := e.bindings[button]; ok {
		return b
	}

	b := &binding{id: uuid.NewString()}
	entry := e.log.WithFields(log.Fields{"button": button, "instance": b.id})
	b.detector = NewDetector(HandlerFuncs{
		OnShortPress: func() {
			e.emit(NewPressGesture(button))
		},
		OnLongPress: func() {
			b.ticks.Store(0)
			e.emit(NewLongPressGesture(button))
		},
		OnHeldTick: func() {
			e.emit(NewHeldGesture(button, int(b.ticks.Add(1))))
		},
	},
		WithThreshold(e.timing.LongPressThreshold()),
		WithInterval(e.timing.HeldInterval()),
		WithLogger(entry),
	)
	e.bindings[button] = b
	return b
}

// snapshot must be called with e.mu held
func (e *Engine) snapshot() []*binding {
	bindings := make([]*binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		bindings = append(bindings, b)
	}
	return bindings
}

func (e *Engine) emit(g Gesture) {
	if e.onGesture != nil {
		e.onGesture(g)
	}
}
