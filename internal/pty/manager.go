package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/pleimann/presspad/internal/action"
)

var (
	ErrNoCommand      = errors.New("command is required")
	ErrNotStarted     = errors.New("pty not started")
	ErrAlreadyStarted = errors.New("pty already started")
)

const stopTimeout = 2 * time.Second

// Option configures a Manager
type Option func(*Manager)

// WithOutput copies everything the TUI prints to w
func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.output = w }
}

// WithInput forwards f to the TUI. When f is a terminal it is switched to
// raw mode and its size is given to the PTY.
func WithInput(f *os.File) Option {
	return func(m *Manager) { m.input = f }
}

// Manager manages a PTY and the TUI process running in it
type Manager struct {
	command    string
	args       []string
	workingDir string
	output     io.Writer
	input      *os.File

	mu       sync.Mutex
	ptmx     *os.File
	cmd      *exec.Cmd
	restore  func()
	exited   chan struct{}
	exitErr  error
	stopOnce sync.Once

	tail *RingBuffer
}

// NewManager creates a new PTY manager. Output goes to stdout and stdin is
// forwarded unless options say otherwise.
func NewManager(command string, args []string, workingDir string, opts ...Option) (*Manager, error) {
	if command == "" {
		return nil, ErrNoCommand
	}

	m := &Manager{
		command:    command,
		args:       args,
		workingDir: workingDir,
		output:     os.Stdout,
		input:      os.Stdin,
		tail:       NewRingBuffer(4096),
		exited:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start starts the TUI process in a PTY
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, m.command, m.args...)
	if m.workingDir != "" {
		cmd.Dir = m.workingDir
	}
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, m.terminalSize())
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	m.ptmx = ptmx
	m.cmd = cmd

	if m.input != nil {
		m.forwardInput(ptmx)
	}

	go m.readOutput(ptmx)
	go m.wait()

	return nil
}

// terminalSize returns the size of the input terminal, or nil when there is none
func (m *Manager) terminalSize() *pty.Winsize {
	if m.input == nil || !term.IsTerminal(int(m.input.Fd())) {
		return nil
	}
	cols, rows, err := term.GetSize(int(m.input.Fd()))
	if err != nil {
		log.WithError(err).Debug("Could not read terminal size")
		return nil
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
}

func (m *Manager) forwardInput(ptmx *os.File) {
	fd := int(m.input.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			log.WithError(err).Warn("Could not put terminal in raw mode")
		} else {
			m.restore = func() { _ = term.Restore(fd, state) }
		}
	}

	go func() {
		_, _ = io.Copy(ptmx, m.input)
	}()
}

func (m *Manager) readOutput(ptmx *os.File) {
	buf := make([]byte, 1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			m.tail.Write(buf[:n])
			if m.output != nil {
				_, _ = m.output.Write(buf[:n])
			}
		}
		if err != nil {
			return
		}
	}
}

func (m *Manager) wait() {
	err := m.cmd.Wait()

	m.mu.Lock()
	m.exitErr = err
	m.mu.Unlock()
	close(m.exited)

	if err != nil {
		log.WithError(err).WithField("command", m.command).Debug("TUI exited")
	}
}

// Done is closed when the TUI process exits
func (m *Manager) Done() <-chan struct{} {
	return m.exited
}

// Err returns the exit error of the TUI once Done is closed
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitErr
}

// Stop interrupts the TUI, kills it if it does not exit in time, closes the
// PTY and restores the terminal
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		cmd := m.cmd
		m.mu.Unlock()

		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Signal(os.Interrupt)
			select {
			case <-m.exited:
			case <-time.After(stopTimeout):
				_ = cmd.Process.Kill()
				<-m.exited
			}
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.ptmx != nil {
			m.ptmx.Close()
			m.ptmx = nil
		}
		if m.restore != nil {
			m.restore()
			m.restore = nil
		}
	})
}

// WriteKey writes a key press to the PTY
func (m *Manager) WriteKey(key action.KeyPress) error {
	data := key.ToBytes()
	if data == nil {
		return fmt.Errorf("no terminal sequence for key %s", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptmx == nil {
		return ErrNotStarted
	}
	_, err := m.ptmx.Write(data)
	return err
}

// RecentOutput returns the last few kilobytes the TUI printed
func (m *Manager) RecentOutput() string {
	return m.tail.String()
}

// Resize resizes the PTY window
func (m *Manager) Resize(rows, cols uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptmx == nil {
		return ErrNotStarted
	}
	return pty.Setsize(m.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// IsRunning returns whether the TUI process is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	started := m.cmd != nil
	m.mu.Unlock()
	if !started {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}
