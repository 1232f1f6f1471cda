package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/action"
	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/counter"
	"github.com/pleimann/presspad/internal/display"
	"github.com/pleimann/presspad/internal/evdev"
	"github.com/pleimann/presspad/internal/feedback"
	"github.com/pleimann/presspad/internal/gesture"
	"github.com/pleimann/presspad/internal/hid"
	"github.com/pleimann/presspad/internal/pty"
)

var errTUIExited = errors.New("TUI exited")

// App ties an input source to the gesture engine and the gesture consumers
type App struct {
	config *config.Config

	engine   *gesture.Engine
	mapper   *action.Mapper
	executor *action.Executor
	counters *counter.Registry
	beeper   *feedback.Beeper

	hidDevice      *hid.Device
	evdevDevice    *evdev.Device
	ptyManager     *pty.Manager
	displayManager *display.Manager
}

// newCore builds everything that does not touch hardware. keys may be nil
// when no TUI is configured.
func newCore(cfg *config.Config, keys action.KeyWriter, beeper *feedback.Beeper) *App {
	app := &App{
		config:   cfg,
		mapper:   action.NewMapper(cfg),
		counters: counter.NewRegistry(cfg.Counters),
		beeper:   beeper,
	}
	if keys != nil {
		app.executor = action.NewExecutor(keys)
	}
	app.engine = gesture.NewEngine(cfg.Timing, app.handleGesture, log.WithField("component", "gesture"))
	app.counters.OnChange(app.counterChanged)
	app.counters.OnWriteError(app.counterWriteFailed)
	return app
}

func newApp(cfg *config.Config) (*App, error) {
	var ptyManager *pty.Manager
	var keys action.KeyWriter
	if cfg.TUI.Command != "" {
		var err error
		ptyManager, err = pty.NewManager(cfg.TUI.Command, cfg.TUI.Args, cfg.TUI.WorkingDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create PTY manager: %w", err)
		}
		keys = pty.NewWriter(ptyManager, cfg.TUI.KeyDelay())
	}

	app := newCore(cfg, keys, feedback.NewBeeper(cfg.Feedback))
	app.ptyManager = ptyManager

	switch cfg.Input.Source {
	case config.SourceEvdev:
		dev, err := evdev.Open(cfg.Input.EvdevPath, cfg.Input.Keymap(), cfg.Input.Dials())
		if err != nil {
			app.beeper.Stop()
			return nil, fmt.Errorf("failed to open input device: %w", err)
		}
		app.evdevDevice = dev
	default:
		dev, err := hid.NewDevice(cfg.Device.VendorID, cfg.Device.ProductID)
		if err != nil {
			app.beeper.Stop()
			return nil, fmt.Errorf("failed to open HID device: %w", err)
		}
		app.hidDevice = dev
		if len(cfg.Display.Regions) > 0 {
			app.displayManager = display.NewManager(cfg.Display, dev, app.counters)
		}
	}

	return app, nil
}

// handleGesture fans a gesture out to key actions, counters, feedback and
// the display. It runs on the detector goroutines.
func (a *App) handleGesture(g gesture.Gesture) {
	log.WithField("gesture", g.String()).Debug("Gesture detected")

	if keys := a.mapper.Map(g); len(keys) > 0 && a.executor != nil {
		if err := a.executor.Execute(keys); err != nil {
			log.WithError(err).WithField("gesture", g.String()).Warn("Failed to execute action")
		}
	}

	if name, ok := a.mapper.Counter(g.Button); ok {
		if _, err := a.counters.Apply(name, g); err != nil {
			log.WithError(err).Warn("Failed to update counter")
		}
	}

	if a.beeper != nil {
		a.beeper.Notify(g)
	}
	if a.displayManager != nil {
		a.displayManager.SetGesture(g)
	}
}

func (a *App) counterChanged(name string, value int) {
	log.WithFields(log.Fields{"counter": name, "value": value}).Info("Counter changed")
	if a.displayManager != nil {
		a.displayManager.SetCounter(name, value)
	}
}

// counterWriteFailed makes a failed counter file write visible: an alert tone
// and a message in the gesture regions of the display
func (a *App) counterWriteFailed(name string, err error) {
	if a.beeper != nil {
		a.beeper.Alert()
	}
	if a.displayManager != nil {
		a.displayManager.Alert(name + " write failed")
	}
}

// handleRotation moves the dial's counter by its step per detent
func (a *App) handleRotation(rot evdev.Rotation) {
	log.WithFields(log.Fields{"counter": rot.Counter, "ticks": rot.Ticks}).Debug("Dial rotated")
	if _, err := a.counters.Rotate(rot.Counter, rot.Ticks); err != nil {
		log.WithError(err).Warn("Failed to update counter")
	}
}

// Reload applies a new config. Input (including dial bindings) and TUI
// changes need a restart.
func (a *App) Reload(cfg *config.Config) {
	if cfg.Input.Source != a.config.Input.Source ||
		cfg.Input.EvdevPath != a.config.Input.EvdevPath ||
		cfg.Device.VendorID != a.config.Device.VendorID ||
		cfg.Device.ProductID != a.config.Device.ProductID {
		log.Warn("Input device changes take effect after a restart")
	}

	a.engine.SetTiming(cfg.Timing)
	a.mapper.Reload(cfg)
	a.counters.Reload(cfg.Counters)
	if a.beeper != nil {
		a.beeper.Reload(cfg.Feedback)
	}
	if a.displayManager != nil {
		a.displayManager.Reload(cfg.Display, a.counters)
	}
	a.config = cfg
}

// Run processes input until ctx is cancelled, the TUI exits or the input
// device fails for good
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.shutdown()
	defer cancel()

	a.engine.Start(ctx)
	a.counters.Sync()

	var tuiDone <-chan struct{}
	if a.ptyManager != nil {
		if err := a.ptyManager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		a.ptyManager.WatchResize(ctx)
		tuiDone = a.ptyManager.Done()
	}

	if a.displayManager != nil {
		a.displayManager.Start(ctx)
	}

	inputErr := make(chan error, 1)
	go func() {
		if a.evdevDevice != nil {
			inputErr <- a.readEvdev(ctx)
		} else {
			inputErr <- a.readHID(ctx)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-tuiDone:
		if err := a.ptyManager.Err(); err != nil {
			log.WithError(err).WithField("output", a.ptyManager.RecentOutput()).Debug("TUI output before exit")
			return fmt.Errorf("%w: %v", errTUIExited, err)
		}
		return nil
	case err := <-inputErr:
		return err
	}
}

func (a *App) readEvdev(ctx context.Context) error {
	edges := make(chan evdev.Edge, 64)
	rotations := make(chan evdev.Rotation, 64)
	errc := make(chan error, 1)
	go func() { errc <- a.evdevDevice.Read(ctx, edges, rotations) }()

	for {
		select {
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case edge := <-edges:
			if edge.Down {
				a.engine.Press(edge.Button)
			} else {
				a.engine.Release(edge.Button)
			}
		case rot := <-rotations:
			a.handleRotation(rot)
		}
	}
}

// readHID forwards reports to the engine and reconnects when the device
// drops out
func (a *App) readHID(ctx context.Context) error {
	poll := time.Duration(a.config.Device.PollIntervalMs) * time.Millisecond

	for {
		events := make(chan hid.Event, 64)
		errc := make(chan error, 1)
		go func() { errc <- a.hidDevice.ReadEvents(ctx, events) }()

		err := a.forwardHID(events, errc)
		if ctx.Err() != nil {
			return nil
		}

		log.WithError(err).Warn("HID device disconnected, waiting for it to return")
		a.engine.Reset()
		if err := a.hidDevice.WaitForDevice(ctx, poll); err != nil {
			return nil
		}
		log.Info("HID device reconnected")
		if a.displayManager != nil {
			a.displayManager.ForceRefresh()
		}
	}
}

func (a *App) forwardHID(events <-chan hid.Event, errc <-chan error) error {
	for {
		select {
		case err := <-errc:
			return err
		case event := <-events:
			a.engine.ProcessEvent(event)
		}
	}
}

func (a *App) shutdown() {
	log.Debug("Shutting down")
	a.engine.Stop()
	if a.displayManager != nil {
		a.displayManager.Stop()
	}
	if a.ptyManager != nil {
		a.ptyManager.Stop()
	}
	if a.beeper != nil {
		a.beeper.Stop()
	}
	if a.hidDevice != nil {
		a.hidDevice.Close()
	}
	if a.evdevDevice != nil {
		a.evdevDevice.Close()
	}
}
