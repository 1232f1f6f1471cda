package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "config.yaml", fullYAML)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) { reloaded <- cfg })
	w.Start()

	assert.Equal(t, 1500, w.Get().Timing.LongPressThresholdMs)

	updated := strings.Replace(fullYAML, "long_press_threshold_ms: 1500", "long_press_threshold_ms: 900", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 900, cfg.Timing.LongPressThresholdMs)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
	assert.Equal(t, 900, w.Get().Timing.LongPressThresholdMs)
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	path := writeConfig(t, "config.yaml", fullYAML)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) { reloaded <- cfg })
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("timing: [not, a, map"), 0644))

	select {
	case <-reloaded:
		t.Fatal("invalid config must not be delivered")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, 1500, w.Get().Timing.LongPressThresholdMs)
}

func TestWatcherStopTwice(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, "config.yaml", fullYAML))
	require.NoError(t, err)
	w.Start()

	w.Stop()
	assert.NotPanics(t, w.Stop)
}

func TestNewWatcherInvalidConfig(t *testing.T) {
	_, err := NewWatcher(writeConfig(t, "config.yaml", "input:\n  source: serial\n"))
	assert.Error(t, err)
}
