package display

import (
	"context"
	"image"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/gesture"
	"github.com/pleimann/presspad/internal/hid"
)

// DeviceWriter is the interface for sending frames to the device
type DeviceWriter interface {
	SendFrame(frame *hid.DisplayFrame) error
}

// CounterSource supplies the starting value of counter regions
type CounterSource interface {
	Value(name string) (int, bool)
}

type region struct {
	config  config.DisplayRegion
	rect    image.Rectangle
	content string
	dirty   bool
}

// Manager keeps the OLED regions up to date
type Manager struct {
	device   DeviceWriter
	renderer *Renderer
	encoder  *FrameEncoder
	interval time.Duration

	mu      sync.Mutex
	regions []*region

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a display manager. counters may be nil.
func NewManager(cfg config.DisplayConfig, device DeviceWriter, counters CounterSource) *Manager {
	m := &Manager{
		device:   device,
		renderer: NewRenderer(cfg.Width, cfg.Height),
		encoder:  NewFrameEncoder(DefaultMaxPayload),
		interval: time.Duration(cfg.UpdateIntervalMs) * time.Millisecond,
	}
	m.regions = buildRegions(cfg.Regions, counters)
	return m
}

func buildRegions(cfgs []config.DisplayRegion, counters CounterSource) []*region {
	regions := make([]*region, 0, len(cfgs))
	for _, c := range cfgs {
		r := &region{
			config: c,
			rect:   image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height),
			dirty:  true,
		}
		switch c.Source {
		case config.RegionStatic:
			r.content = c.Content
		case config.RegionCounter:
			if counters != nil {
				if v, ok := counters.Value(c.Counter); ok {
					r.content = strconv.Itoa(v)
				}
			}
		}
		regions = append(regions, r)
	}
	return regions
}

// Reload swaps in new regions and redraws the whole display
func (m *Manager) Reload(cfg config.DisplayConfig, counters CounterSource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.renderer.Clear(m.renderer.Bounds())
	m.regions = buildRegions(cfg.Regions, counters)
}

// Start runs the update loop until ctx is cancelled or Stop is called
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	interval := m.interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Flush(); err != nil {
					log.WithError(err).Warn("Display update failed")
				}
			}
		}
	}()
}

// Stop ends the update loop and clears the display
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
		if err := m.device.SendFrame(m.encoder.EncodeClear()); err != nil {
			log.WithError(err).Debug("Failed to clear display")
		}
	})
}

// SetRegionContent replaces the text of a named static region
func (m *Manager) SetRegionContent(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		if r.config.Name == name {
			r.set(content)
		}
	}
}

// SetCounter shows a counter's value in every region bound to it
func (m *Manager) SetCounter(name string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		if r.config.Source == config.RegionCounter && r.config.Counter == name {
			r.set(strconv.Itoa(value))
		}
	}
}

// SetGesture shows the latest gesture in every gesture region
func (m *Manager) SetGesture(g gesture.Gesture) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		if r.config.Source == config.RegionGesture {
			r.set(g.String())
		}
	}
}

// Alert shows msg in every gesture region until the next gesture replaces it
func (m *Manager) Alert(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		if r.config.Source == config.RegionGesture {
			r.set("! " + msg)
		}
	}
}

func (r *region) set(content string) {
	if r.content != content {
		r.content = content
		r.dirty = true
	}
}

// ForceRefresh marks every region dirty so the next flush redraws them
func (m *Manager) ForceRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		r.dirty = true
	}
}

// Content returns the text currently shown in a region
func (m *Manager) Content(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		if r.config.Name == name {
			return r.content, true
		}
	}
	return "", false
}

// Flush redraws the dirty regions and sends them to the device
func (m *Manager) Flush() error {
	m.mu.Lock()
	var frames []*hid.DisplayFrame
	for _, r := range m.regions {
		if !r.dirty {
			continue
		}
		m.renderer.Clear(r.rect)
		m.renderer.Text(r.rect, r.content)
		frames = append(frames, m.encoder.ChunkFrame(r.rect, m.renderer.Pack(r.rect))...)
		r.dirty = false
	}
	m.mu.Unlock()

	for _, frame := range frames {
		if err := m.device.SendFrame(frame); err != nil {
			return err
		}
	}
	return nil
}
