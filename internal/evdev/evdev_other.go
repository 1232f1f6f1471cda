//go:build !linux

package evdev

import "context"

// Device is unavailable off Linux
type Device struct{}

func Open(path string, keymap map[uint16]int, dials map[uint16]string) (*Device, error) {
	return nil, ErrUnsupported
}

func (d *Device) Read(ctx context.Context, edges chan<- Edge, rotations chan<- Rotation) error {
	return ErrUnsupported
}

func (d *Device) Close() error {
	return nil
}

func List() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}
