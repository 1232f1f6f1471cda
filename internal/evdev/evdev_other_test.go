//go:build !linux

package evdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupported(t *testing.T) {
	_, err := Open("/dev/input/event0", nil, nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = List()
	assert.ErrorIs(t, err, ErrUnsupported)
}
