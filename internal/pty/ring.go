package pty

import "sync"

// RingBuffer keeps the most recent bytes written to it
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	write int
	full  bool
}

// NewRingBuffer creates a new ring buffer with the given size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{data: make([]byte, size)}
}

// Write appends p, overwriting the oldest bytes once the buffer is full
func (rb *RingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.data) == 0 {
		return
	}
	if len(p) >= len(rb.data) {
		copy(rb.data, p[len(p)-len(rb.data):])
		rb.write = 0
		rb.full = true
		return
	}
	for _, b := range p {
		rb.data[rb.write] = b
		rb.write++
		if rb.write == len(rb.data) {
			rb.write = 0
			rb.full = true
		}
	}
}

// String returns the buffer contents from oldest to newest
func (rb *RingBuffer) String() string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.full {
		return string(rb.data[:rb.write])
	}
	out := make([]byte, 0, len(rb.data))
	out = append(out, rb.data[rb.write:]...)
	out = append(out, rb.data[:rb.write]...)
	return string(out)
}
