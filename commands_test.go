package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/presspad/internal/config"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"0x1234", 0x1234, false},
		{"0XABCD", 0xABCD, false},
		{" 0x00ff ", 0x00FF, false},
		{"4660", 4660, false},
		{"65535", 65535, false},
		{"65536", 0, true},
		{"0x10000", 0, true},
		{"0x", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetDeviceArgs(t *testing.T) {
	cmd := newSetDeviceCmd(&rootOptions{})

	assert.NoError(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"0x1", "0x2"}))
	assert.Error(t, cmd.Args(cmd, []string{"0x1"}))
	assert.Error(t, cmd.Args(cmd, []string{"0x1", "0x2", "0x3"}))
}

func TestSetDeviceRejectsBadIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cmd := newSetDeviceCmd(&rootOptions{configPath: path})

	err := cmd.RunE(cmd, []string{"0xZZZZ", "0x1"})
	assert.ErrorContains(t, err, "invalid vendor_id")
	assert.NoFileExists(t, path)
}

func TestSaveDeviceCreatesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, saveDevice(path, 0x1234, 0x5678))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0x1234")
	assert.Contains(t, string(data), "0x5678")
}

func TestSaveDeviceUpdatesExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.CreateDefaultConfig(path, 0x1111, 0x2222))

	require.NoError(t, saveDevice(path, 0xAAAA, 0xBBBB))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0xAAAA")
	assert.NotContains(t, string(data), "0x1111")
}

func TestStartupSummary(t *testing.T) {
	cfg := &config.Config{
		Device: config.DeviceConfig{VendorID: 0x1234, ProductID: 0x5678},
		Input:  config.InputConfig{Source: config.SourceHID},
		Timing: config.TimingConfig{LongPressThresholdMs: 1500, HeldIntervalMs: 250},
		TUI:    config.TUIConfig{Command: "htop", Args: []string{"-d", "10"}},
		Buttons: []config.Button{
			{Index: 0}, {Index: 1},
		},
	}

	s := startupSummary("pad.yaml", cfg)
	assert.Equal(t, "pad.yaml", s.ConfigPath)
	assert.Equal(t, "0x1234:0x5678", s.Device)
	assert.Equal(t, 1500*time.Millisecond, s.Threshold)
	assert.Equal(t, 250*time.Millisecond, s.Interval)
	assert.Equal(t, 2, s.Buttons)
	assert.Equal(t, "htop -d 10", s.Command)

	cfg.Input = config.InputConfig{Source: config.SourceEvdev, EvdevPath: "/dev/input/event5"}
	cfg.TUI = config.TUIConfig{}
	s = startupSummary("pad.yaml", cfg)
	assert.Equal(t, "/dev/input/event5", s.Device)
	assert.Empty(t, s.Command)
}

func TestSetLogLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	setLogLevel(config.LogConfig{Level: "warn"}, false)
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	setLogLevel(config.LogConfig{Level: "warn"}, true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	setLogLevel(config.LogConfig{Level: "chatty"}, false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestSetupLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presspad.log")
	defer log.SetLevel(log.GetLevel())

	closeLog, err := setupLogging(config.LogConfig{Level: "info", File: path}, false)
	require.NoError(t, err)
	log.Info("hello from the log file")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the log file")
}

func TestSetupLoggingBadFile(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	_, err := setupLogging(config.LogConfig{Level: "info", File: filepath.Join(t.TempDir(), "missing", "x.log")}, false)
	assert.Error(t, err)
}
