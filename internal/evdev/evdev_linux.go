//go:build linux

package evdev

import (
	"context"
	"fmt"
	"sync"

	"github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"
)

// Device is an open input device
type Device struct {
	path   string
	keymap map[uint16]int
	dials  map[uint16]string
	dev    *evdev.InputDevice

	closeOnce sync.Once
	closeErr  error
}

// Open opens the input device at path. keymap binds key codes to buttons and
// dials binds relative axis codes to counters.
func Open(path string, keymap map[uint16]int, dials map[uint16]string) (*Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Device{path: path, keymap: keymap, dials: dials, dev: dev}, nil
}

// Read sends button edges and dial rotations until ctx is cancelled or the
// device fails. Cancelling ctx closes the device.
func (d *Device) Read(ctx context.Context, edges chan<- Edge, rotations chan<- Rotation) error {
	stop := context.AfterFunc(ctx, func() { d.Close() })
	defer stop()

	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read %s: %w", d.path, err)
		}
		switch ev.Type {
		case evdev.EV_KEY:
			edge, ok := Translate(uint16(ev.Code), ev.Value, d.keymap)
			if !ok {
				continue
			}
			log.WithFields(log.Fields{"code": ev.Code, "button": edge.Button, "down": edge.Down}).Trace("evdev key")

			select {
			case edges <- edge:
			case <-ctx.Done():
				return ctx.Err()
			}
		case evdev.EV_REL:
			rot, ok := TranslateRel(uint16(ev.Code), ev.Value, d.dials)
			if !ok {
				continue
			}
			log.WithFields(log.Fields{"code": ev.Code, "counter": rot.Counter, "ticks": rot.Ticks}).Trace("evdev dial")

			select {
			case rotations <- rot:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close closes the device. It is safe to call more than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.dev.Close()
	})
	return d.closeErr
}

// List returns the input devices that report key or relative axis events
func List() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	var devices []DeviceInfo
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			log.WithError(err).WithField("path", p.Path).Debug("Skipping unreadable input device")
			continue
		}
		keys := dev.CapableEvents(evdev.EV_KEY)
		rels := dev.CapableEvents(evdev.EV_REL)
		dev.Close()

		if len(keys) > 0 || len(rels) > 0 {
			devices = append(devices, DeviceInfo{Path: p.Path, Name: p.Name})
		}
	}
	return devices, nil
}
