package pty

import (
	"time"

	"github.com/pleimann/presspad/internal/action"
)

// Writer paces key presses for TUIs that drop input sent too quickly
type Writer struct {
	next     action.KeyWriter
	keyDelay time.Duration
}

// NewWriter wraps next, pausing keyDelay after every key
func NewWriter(next action.KeyWriter, keyDelay time.Duration) *Writer {
	return &Writer{next: next, keyDelay: keyDelay}
}

// WriteKey writes a single key press and waits out the delay
func (w *Writer) WriteKey(key action.KeyPress) error {
	if err := w.next.WriteKey(key); err != nil {
		return err
	}
	if w.keyDelay > 0 {
		time.Sleep(w.keyDelay)
	}
	return nil
}
