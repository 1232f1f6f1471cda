package pty

import "context"

// WatchResize is a no-op on Windows, which has no SIGWINCH
func (m *Manager) WatchResize(ctx context.Context) {}
