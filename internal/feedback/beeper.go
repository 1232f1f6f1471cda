// Package feedback plays audible cues for gestures
package feedback

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/gesture"
)

type tone struct {
	freq     float64
	duration int
}

var (
	longPressTone = tone{beeep.DefaultFreq, beeep.DefaultDuration / 2}
	heldTone      = tone{beeep.DefaultFreq * 2, beeep.DefaultDuration / 4}
	alertTone     = tone{beeep.DefaultFreq / 2, beeep.DefaultDuration}
)

// Beeper beeps on long presses and, optionally, held ticks. Beeps play one
// at a time; a cue arriving while one is playing is dropped.
type Beeper struct {
	beep func(freq float64, duration int) error

	mu  sync.RWMutex
	cfg config.FeedbackConfig

	busy     atomic.Bool // set by play until the cue has finished
	queue    chan tone
	done     chan struct{}
	stopOnce sync.Once
}

// NewBeeper starts a beeper using the system speaker
func NewBeeper(cfg config.FeedbackConfig) *Beeper {
	return newBeeper(cfg, beeep.Beep)
}

func newBeeper(cfg config.FeedbackConfig, beep func(float64, int) error) *Beeper {
	b := &Beeper{
		beep:  beep,
		cfg:   cfg,
		queue: make(chan tone, 1),
		done:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Beeper) loop() {
	for {
		select {
		case <-b.done:
			return
		case t := <-b.queue:
			if err := b.beep(t.freq, t.duration); err != nil {
				log.WithError(err).Debug("Beep failed")
			}
			b.busy.Store(false)
		}
	}
}

// Notify plays the cue for g, if any, unless another cue is still playing
func (b *Beeper) Notify(g gesture.Gesture) {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()

	var t tone
	switch {
	case g.Type == gesture.GestureLongPress && cfg.BeepOnLongPress:
		t = longPressTone
	case g.Type == gesture.GestureHeld && cfg.BeepOnHeld:
		t = heldTone
	default:
		return
	}
	b.play(t)
}

// Alert plays the error cue regardless of the gesture settings
func (b *Beeper) Alert() {
	b.play(alertTone)
}

func (b *Beeper) play(t tone) {
	if !b.busy.CompareAndSwap(false, true) {
		return
	}
	b.queue <- t
}

// Reload replaces the feedback settings
func (b *Beeper) Reload(cfg config.FeedbackConfig) {
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
}

// Stop ends the beep loop
func (b *Beeper) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}
