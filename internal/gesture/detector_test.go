package gesture

import (
	"context"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unit is one abstract time unit of the press scenarios below
const unit = 50 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	start  time.Time
	events []string
	at     []time.Duration
}

func newRecorder() *recorder {
	return &recorder{start: time.Now()}
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.at = append(r.at, time.Since(r.start))
}

func (r *recorder) ShortPress() { r.add("short") }
func (r *recorder) LongPress()  { r.add("long") }
func (r *recorder) HeldTick()   { r.add("tick") }

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) times() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.at...)
}

func newTestDetector(h Handler) *Detector {
	return NewDetector(h, WithThreshold(2*unit), WithInterval(unit))
}

func TestDetectorShortPress(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(unit)
	d.KeyUp()

	assert.Equal(t, []string{"short"}, rec.snapshot())

	// Nothing may fire later for this press
	time.Sleep(4 * unit)
	assert.Equal(t, []string{"short"}, rec.snapshot())
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorLongPressWithHeldTicks(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(4*unit + unit/2)
	d.KeyUp()

	assert.Equal(t, []string{"long", "tick", "tick"}, rec.snapshot())

	at := rec.times()
	require.Len(t, at, 3)
	assert.GreaterOrEqual(t, at[0], 2*unit, "long press fired before threshold")
	assert.GreaterOrEqual(t, at[1], 3*unit, "first tick fired before one interval")
	assert.GreaterOrEqual(t, at[2], 4*unit, "second tick fired before two intervals")
}

func TestDetectorNoEmitAfterKeyUp(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(3 * unit)
	d.KeyUp()

	before := rec.snapshot()
	require.NotEmpty(t, before)
	assert.Equal(t, "long", before[0])

	time.Sleep(5 * unit)
	assert.Equal(t, before, rec.snapshot())
}

func TestDetectorRepeatedKeyDown(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(unit)
	d.KeyDown()

	// The first timer would have expired by now had it survived
	time.Sleep(3 * unit / 2)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, StateWaiting, d.State())

	// The second timer expires two units after the second KeyDown
	time.Sleep(unit)
	d.KeyUp()

	assert.Equal(t, []string{"long"}, rec.snapshot())
}

func TestDetectorNoStateLeakBetweenCycles(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(2*unit + unit/2)
	d.KeyUp()
	require.Equal(t, []string{"long"}, rec.snapshot())

	d.KeyDown()
	time.Sleep(unit / 2)
	d.KeyUp()

	assert.Equal(t, []string{"long", "short"}, rec.snapshot())
}

func TestDetectorKeyUpWithoutKeyDown(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyUp()

	assert.Equal(t, []string{"short"}, rec.snapshot())
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorStateTransitions(t *testing.T) {
	d := newTestDetector(HandlerFuncs{})

	assert.Equal(t, StateIdle, d.State())

	d.KeyDown()
	assert.Equal(t, StateWaiting, d.State())

	assert.Eventually(t, func() bool {
		return d.State() == StateHeld
	}, 10*unit, unit/10)

	d.KeyUp()
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorStop(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	d.Stop()

	time.Sleep(4 * unit)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorStopResetsLongPressFlag(t *testing.T) {
	rec := newRecorder()
	d := newTestDetector(rec)

	d.KeyDown()
	time.Sleep(2*unit + unit/2)
	d.Stop()
	require.Equal(t, []string{"long"}, rec.snapshot())

	d.KeyDown()
	d.KeyUp()
	assert.Equal(t, []string{"long", "short"}, rec.snapshot())
}

func TestDetectorTaskFaultIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	shorts := 0

	d := NewDetector(HandlerFuncs{
		OnShortPress: func() { shorts++ },
		OnLongPress:  func() { panic("display unplugged") },
	}, WithThreshold(unit), WithInterval(unit), WithLogger(log.NewEntry(logger)))

	d.KeyDown()
	time.Sleep(2 * unit)
	d.KeyUp()

	// The flag was set before the panic, so the release is still a long press
	assert.Equal(t, 0, shorts)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Contains(t, entry.Data[log.ErrorKey].(error).Error(), "display unplugged")
}

func TestDetectorFaultedTaskReportsIdle(t *testing.T) {
	logger, _ := test.NewNullLogger()

	d := NewDetector(HandlerFuncs{
		OnLongPress: func() { panic("display unplugged") },
	}, WithThreshold(unit), WithInterval(unit), WithLogger(log.NewEntry(logger)))

	d.KeyDown()
	assert.Equal(t, StateWaiting, d.State())
	time.Sleep(2 * unit)

	// No tick loop is running any more
	assert.Equal(t, StateIdle, d.State())
	d.KeyUp()
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorReconfigure(t *testing.T) {
	rec := newRecorder()
	d := NewDetector(rec)

	threshold, interval := d.Timing()
	assert.Equal(t, DefaultLongPressThreshold, threshold)
	assert.Equal(t, DefaultHeldInterval, interval)

	d.Reconfigure(unit, 0)
	threshold, interval = d.Timing()
	assert.Equal(t, unit, threshold)
	assert.Equal(t, DefaultHeldInterval, interval)

	d.KeyDown()
	time.Sleep(2 * unit)
	d.KeyUp()
	assert.Equal(t, []string{"long"}, rec.snapshot())
}

func TestDetectorConcurrentCallers(t *testing.T) {
	var mu sync.Mutex
	shorts := 0

	d := NewDetector(HandlerFuncs{
		OnShortPress: func() {
			mu.Lock()
			shorts++
			mu.Unlock()
		},
	}, WithThreshold(time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.KeyDown()
				d.KeyUp()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, StateIdle, d.State())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 400, shorts)
}

func TestAwaitPrefersCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		c := make(chan time.Time, 1)
		c <- time.Now()
		assert.False(t, await(ctx, c))
	}
}

func TestAwaitTimerWins(t *testing.T) {
	c := make(chan time.Time, 1)
	c <- time.Now()
	assert.True(t, await(context.Background(), c))
}

func TestHandlerFuncsNilSafe(t *testing.T) {
	var h HandlerFuncs
	assert.NotPanics(t, func() {
		h.ShortPress()
		h.LongPress()
		h.HeldTick()
	})
}
