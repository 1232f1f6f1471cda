package gesture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultLongPressThreshold = 2 * time.Second
	DefaultHeldInterval       = time.Second
)

// State is the position of a Detector within a press cycle
type State int32

const (
	StateIdle State = iota
	StateWaiting
	StateHeld
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateHeld:
		return "held"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Handler receives the outcome of press cycles.
//
// LongPress and HeldTick run on the detector's timer goroutine, ShortPress runs
// on the goroutine that called KeyUp. None of them may call back into the
// Detector that invoked them.
type Handler interface {
	ShortPress()
	LongPress()
	HeldTick()
}

// HandlerFuncs adapts plain functions to a Handler. Nil fields are skipped.
type HandlerFuncs struct {
	OnShortPress func()
	OnLongPress  func()
	OnHeldTick   func()
}

func (h HandlerFuncs) ShortPress() {
	if h.OnShortPress != nil {
		h.OnShortPress()
	}
}

func (h HandlerFuncs) LongPress() {
	if h.OnLongPress != nil {
		h.OnLongPress()
	}
}

func (h HandlerFuncs) HeldTick() {
	if h.OnHeldTick != nil {
		h.OnHeldTick()
	}
}

// pressTask is a running timer goroutine together with the means to stop it.
// cancel and done are created together and retired together.
type pressTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	fault  error // written before done is closed
}

// retire cancels the task and blocks until its goroutine has returned
func (t *pressTask) retire() error {
	t.cancel()
	<-t.done
	return t.fault
}

// Detector turns the down/up edges of one button into short press, long press
// and held tick notifications
type Detector struct {
	handler Handler
	log     *log.Entry

	mu        sync.Mutex
	threshold time.Duration
	interval  time.Duration
	task      *pressTask

	// longPressed is shared with the running task, which is its only writer
	// besides KeyUp
	longPressed *atomic.Bool
	state       atomic.Int32
}

// Option configures a Detector
type Option func(*Detector)

// WithThreshold sets how long a button must be held to count as a long press
func WithThreshold(threshold time.Duration) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// WithInterval sets the cadence of held ticks after a long press
func WithInterval(interval time.Duration) Option {
	return func(d *Detector) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithLogger sets the log entry used to report timer faults
func WithLogger(entry *log.Entry) Option {
	return func(d *Detector) {
		if entry != nil {
			d.log = entry
		}
	}
}

// NewDetector creates an idle detector reporting to handler
func NewDetector(handler Handler, opts ...Option) *Detector {
	d := &Detector{
		handler:     handler,
		log:         log.NewEntry(log.StandardLogger()),
		threshold:   DefaultLongPressThreshold,
		interval:    DefaultHeldInterval,
		longPressed: new(atomic.Bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// KeyDown starts timing a new press. Any timer left over from an unmatched
// KeyDown is stopped first.
func (d *Detector) KeyDown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.retireTask()

	ctx, cancel := context.WithCancel(context.Background())
	task := &pressTask{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	d.task = task
	d.state.Store(int32(StateWaiting))

	go d.run(ctx, task, d.threshold, d.interval, d.longPressed)
}

// KeyUp ends the current press. It returns only after the timer goroutine has
// exited, so nothing is emitted for this press once KeyUp returns.
func (d *Detector) KeyUp() {
	d.mu.Lock()
	d.retireTask()
	wasLong := d.longPressed.Swap(false)
	d.mu.Unlock()

	if !wasLong {
		d.handler.ShortPress()
	}
}

// Stop cancels any running timer without emitting anything
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.retireTask()
	d.longPressed.Store(false)
}

// Reconfigure changes the timing used from the next KeyDown on. Non-positive
// values leave the current setting unchanged.
func (d *Detector) Reconfigure(threshold, interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if threshold > 0 {
		d.threshold = threshold
	}
	if interval > 0 {
		d.interval = interval
	}
}

// Timing returns the long press threshold and held tick interval
func (d *Detector) Timing() (threshold, interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold, d.interval
}

// State reports where the detector is in the current press cycle
func (d *Detector) State() State {
	return State(d.state.Load())
}

// retireTask must be called with d.mu held
func (d *Detector) retireTask() {
	if d.task == nil {
		return
	}
	if err := d.task.retire(); err != nil {
		d.log.WithError(err).Warn("Press timer terminated abnormally")
	}
	d.task = nil
	d.state.Store(int32(StateIdle))
}

func (d *Detector) run(ctx context.Context, task *pressTask, threshold, interval time.Duration, longPressed *atomic.Bool) {
	defer close(task.done)
	defer func() {
		if r := recover(); r != nil {
			task.fault = fmt.Errorf("press timer panic: %v", r)
			d.state.Store(int32(StateIdle))
		}
	}()

	timer := time.NewTimer(threshold)
	defer timer.Stop()

	if !await(ctx, timer.C) {
		return
	}

	longPressed.Store(true)
	d.state.Store(int32(StateHeld))
	d.handler.LongPress()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for await(ctx, ticker.C) {
		d.handler.HeldTick()
	}
}

// await blocks until c delivers or ctx is cancelled and reports whether c won.
// Cancellation wins when both are ready.
func await(ctx context.Context, c <-chan time.Time) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c:
		return ctx.Err() == nil
	}
}
