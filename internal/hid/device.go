package hid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"
	log "github.com/sirupsen/logrus"
)

// ErrClosed is returned by operations on a closed Device
var ErrClosed = errors.New("device closed")

const permissionHint = "  This may be a permissions issue. On Linux, add a udev rule for the device;\n" +
	"  on macOS, allow your terminal under Privacy & Security > Input Monitoring"

// Device is a connection to the macropad HID interface
type Device struct {
	vendorID  uint16
	productID uint16

	mu     sync.Mutex
	device *hid.Device
	closed bool
}

// NewDevice opens the first openable interface of the device with the given ids
func NewDevice(vendorID, productID uint16) (*Device, error) {
	infos := hid.Enumerate(vendorID, productID)
	if len(infos) == 0 {
		if len(hid.Enumerate(0, 0)) == 0 {
			return nil, fmt.Errorf("no HID devices found on system - check USB connection")
		}
		return nil, fmt.Errorf("no device found with VendorID=0x%04X, ProductID=0x%04X\n"+
			"  Run 'presspad list-devices' to see available devices\n"+
			"  Run 'presspad set-device' to configure the correct device",
			vendorID, productID)
	}

	dev, err := openFirst(infos)
	if err != nil {
		return nil, fmt.Errorf("failed to open any of %d interface(s) for device 0x%04X:0x%04X: %w\n%s",
			len(infos), vendorID, productID, err, permissionHint)
	}

	return &Device{
		vendorID:  vendorID,
		productID: productID,
		device:    dev,
	}, nil
}

// openFirst tries each interface in turn. Composite devices expose several,
// and not all of them can be opened.
func openFirst(infos []hid.DeviceInfo) (*hid.Device, error) {
	var lastErr error
	for _, info := range infos {
		dev, err := info.Open()
		if err == nil {
			return dev, nil
		}
		log.WithFields(log.Fields{"path": info.Path, "interface": info.Interface}).
			WithError(err).Debug("Skipping HID interface")
		lastErr = err
	}
	return nil, lastErr
}

// Close closes the HID device connection
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.device != nil {
		return d.device.Close()
	}
	return nil
}

func (d *Device) current() (*hid.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.device == nil {
		return nil, ErrClosed
	}
	return d.device, nil
}

// ReadEvents reads button reports until ctx is cancelled or the device fails.
// Malformed reports are skipped.
func (d *Device) ReadEvents(ctx context.Context, events chan<- Event) error {
	buf := make([]byte, 64)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dev, err := d.current()
		if err != nil {
			return err
		}

		n, err := dev.Read(buf)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			continue
		}

		event, err := ParseEvent(buf[:n])
		if err != nil {
			log.WithError(err).Debug("Ignoring HID report")
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Write sends a raw report to the device
func (d *Device) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.device == nil {
		return ErrClosed
	}

	_, err := d.device.Write(data)
	return err
}

// SendFrame sends a display frame to the device
func (d *Device) SendFrame(frame *DisplayFrame) error {
	return d.Write(frame.Encode())
}

// Reconnect drops the current handle and opens the device again
func (d *Device) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	d.closed = false

	infos := hid.Enumerate(d.vendorID, d.productID)
	if len(infos) == 0 {
		return fmt.Errorf("device 0x%04X:0x%04X not found", d.vendorID, d.productID)
	}

	dev, err := openFirst(infos)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	d.device = dev
	return nil
}

// WaitForDevice polls until the device can be reopened
func (d *Device) WaitForDevice(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Reconnect(); err == nil {
				return nil
			}
		}
	}
}
