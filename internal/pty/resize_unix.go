//go:build !windows

package pty

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// WatchResize follows the input terminal's size until ctx is done
func (m *Manager) WatchResize(ctx context.Context) {
	if m.terminalSize() == nil {
		return
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)

	go func() {
		defer signal.Stop(winch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-winch:
				size := m.terminalSize()
				if size == nil {
					continue
				}
				if err := m.Resize(size.Rows, size.Cols); err != nil && !errors.Is(err, ErrNotStarted) {
					log.WithError(err).Debug("PTY resize failed")
				}
			}
		}
	}()
}
