package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/pleimann/presspad/internal/config"
)

// setupLogging configures the standard logger. With log.file set, output goes
// to that file so it does not draw over the hosted TUI.
func setupLogging(cfg config.LogConfig, verbose bool) (func(), error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	setLogLevel(cfg, verbose)

	if cfg.File == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	log.SetOutput(f)

	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// setLogLevel applies the configured level; verbose forces debug
func setLogLevel(cfg config.LogConfig, verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
