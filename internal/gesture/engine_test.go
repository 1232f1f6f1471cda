package gesture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/hid"
)

type gestureLog struct {
	mu       sync.Mutex
	received []Gesture
}

func (g *gestureLog) add(gs Gesture) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.received = append(g.received, gs)
}

func (g *gestureLog) snapshot() []Gesture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Gesture(nil), g.received...)
}

var testTiming = config.TimingConfig{
	LongPressThresholdMs: 100,
	HeldIntervalMs:       50,
}

func pressReport(mask uint16) hid.Event {
	return hid.Event{Type: hid.Press, ButtonMask: mask}
}

func releaseReport(mask uint16) hid.Event {
	return hid.Event{Type: hid.Release, ButtonMask: mask}
}

func TestEngineShortPressFromReports(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	e.ProcessEvent(pressReport(0x0001))
	time.Sleep(20 * time.Millisecond)
	e.ProcessEvent(releaseReport(0x0000))

	assert.Equal(t, []Gesture{NewPressGesture(0)}, gl.snapshot())
}

func TestEngineLongPressFromReports(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	e.ProcessEvent(pressReport(0x0004))
	time.Sleep(175 * time.Millisecond)
	e.ProcessEvent(releaseReport(0x0000))

	assert.Equal(t, []Gesture{
		NewLongPressGesture(2),
		NewHeldGesture(2, 1),
	}, gl.snapshot())
}

func TestEngineHeldRepeatRestartsEachPress(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	for i := 0; i < 2; i++ {
		e.Press(3)
		time.Sleep(175 * time.Millisecond)
		e.Release(3)
	}

	assert.Equal(t, []Gesture{
		NewLongPressGesture(3),
		NewHeldGesture(3, 1),
		NewLongPressGesture(3),
		NewHeldGesture(3, 1),
	}, gl.snapshot())
}

func TestEngineDuplicateReportsProduceNoEdges(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	e.ProcessEvent(pressReport(0x0001))
	e.ProcessEvent(pressReport(0x0001))
	time.Sleep(20 * time.Millisecond)
	e.ProcessEvent(releaseReport(0x0000))
	e.ProcessEvent(releaseReport(0x0000))

	assert.Equal(t, []Gesture{NewPressGesture(0)}, gl.snapshot())
}

func TestEngineButtonsAreIndependent(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	e.ProcessEvent(pressReport(0x0001))
	e.ProcessEvent(pressReport(0x0003))
	time.Sleep(20 * time.Millisecond)

	// Button 1 goes up, button 0 stays down past the threshold
	e.ProcessEvent(releaseReport(0x0001))
	time.Sleep(100 * time.Millisecond)
	e.ProcessEvent(releaseReport(0x0000))

	assert.Equal(t, []Gesture{
		NewPressGesture(1),
		NewLongPressGesture(0),
	}, gl.snapshot())
	assert.Equal(t, []int{0, 1}, e.Buttons())
}

func TestEngineStop(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)

	e.Press(0)
	e.Stop()
	time.Sleep(150 * time.Millisecond)

	e.Press(1)
	e.Release(1)

	assert.Empty(t, gl.snapshot())
	assert.Equal(t, StateIdle, e.State(0))
}

func TestEngineStopsWithContext(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)

	e.Press(0)
	cancel()

	assert.Eventually(t, func() bool {
		return e.State(0) == StateIdle
	}, time.Second, 5*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, gl.snapshot())
}

func TestEngineSetTiming(t *testing.T) {
	var gl gestureLog
	e := NewEngine(config.TimingConfig{LongPressThresholdMs: 5000, HeldIntervalMs: 1000}, gl.add, nil)
	defer e.Stop()

	e.Press(0)
	e.Release(0)
	require.Equal(t, []Gesture{NewPressGesture(0)}, gl.snapshot())

	e.SetTiming(testTiming)

	e.Press(0)
	time.Sleep(125 * time.Millisecond)
	e.Release(0)

	assert.Equal(t, []Gesture{
		NewPressGesture(0),
		NewLongPressGesture(0),
	}, gl.snapshot())
}

func TestEngineStateOfUnknownButton(t *testing.T) {
	e := NewEngine(testTiming, nil, nil)
	assert.Equal(t, StateIdle, e.State(9))
	assert.Empty(t, e.Buttons())
}

func TestEngineResetDropsPressWithoutEmitting(t *testing.T) {
	var gl gestureLog
	e := NewEngine(testTiming, gl.add, nil)
	defer e.Stop()

	e.ProcessEvent(pressReport(0x0001))
	time.Sleep(20 * time.Millisecond)
	e.Reset()
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, gl.snapshot())
	assert.Equal(t, StateIdle, e.State(0))

	// the same mask is a fresh press after a reset
	e.ProcessEvent(pressReport(0x0001))
	e.ProcessEvent(releaseReport(0x0000))
	assert.Equal(t, []Gesture{NewPressGesture(0)}, gl.snapshot())
}
