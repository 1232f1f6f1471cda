package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLongPressThresholdMs = 2000
	DefaultHeldIntervalMs       = 1000
	DefaultPollIntervalMs       = 1000
)

// Input sources
const (
	SourceHID   = "hid"
	SourceEvdev = "evdev"
)

// Display region sources
const (
	RegionStatic  = "static"
	RegionCounter = "counter"
	RegionGesture = "gesture"
)

// Environment overrides, read after the optional .env file next to the config
const (
	EnvLongPressThreshold = "PRESSPAD_LONG_PRESS_THRESHOLD_MS"
	EnvHeldInterval       = "PRESSPAD_HELD_INTERVAL_MS"
	EnvLogLevel           = "PRESSPAD_LOG_LEVEL"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device" toml:"device"`
	Input    InputConfig    `yaml:"input" toml:"input"`
	Timing   TimingConfig   `yaml:"timing" toml:"timing"`
	TUI      TUIConfig      `yaml:"tui" toml:"tui"`
	Buttons  []Button       `yaml:"buttons" toml:"buttons"`
	Counters []Counter      `yaml:"counters" toml:"counters"`
	Display  DisplayConfig  `yaml:"display" toml:"display"`
	Feedback FeedbackConfig `yaml:"feedback" toml:"feedback"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// DeviceConfig identifies the HID device. PollIntervalMs is how often a
// disconnected device is looked for.
type DeviceConfig struct {
	VendorID       uint16 `yaml:"vendor_id" toml:"vendor_id"`
	ProductID      uint16 `yaml:"product_id" toml:"product_id"`
	PollIntervalMs int    `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
}

type InputConfig struct {
	Source    string     `yaml:"source" toml:"source"`
	EvdevPath string     `yaml:"evdev_path,omitempty" toml:"evdev_path,omitempty"`
	EvdevKeys  []EvdevKey  `yaml:"evdev_keys,omitempty" toml:"evdev_keys,omitempty"`
	EvdevDials []EvdevDial `yaml:"evdev_dials,omitempty" toml:"evdev_dials,omitempty"`
}

// EvdevKey binds a Linux key code to a button index
type EvdevKey struct {
	Code   uint16 `yaml:"code" toml:"code"`
	Button int    `yaml:"button" toml:"button"`
}

// EvdevDial binds a relative axis code (REL_DIAL, REL_WHEEL) to a counter.
// Each detent moves the counter by its step.
type EvdevDial struct {
	Code    uint16 `yaml:"code" toml:"code"`
	Counter string `yaml:"counter" toml:"counter"`
}

// Dials returns the evdev dial bindings as a code -> counter lookup
func (c InputConfig) Dials() map[uint16]string {
	dials := make(map[uint16]string, len(c.EvdevDials))
	for _, d := range c.EvdevDials {
		dials[d.Code] = d.Counter
	}
	return dials
}

// Keymap returns the evdev bindings as a code -> button lookup
func (c InputConfig) Keymap() map[uint16]int {
	keymap := make(map[uint16]int, len(c.EvdevKeys))
	for _, k := range c.EvdevKeys {
		keymap[k.Code] = k.Button
	}
	return keymap
}

type TimingConfig struct {
	LongPressThresholdMs int `yaml:"long_press_threshold_ms" toml:"long_press_threshold_ms"`
	HeldIntervalMs       int `yaml:"held_interval_ms" toml:"held_interval_ms"`
}

func (t TimingConfig) LongPressThreshold() time.Duration {
	return time.Duration(t.LongPressThresholdMs) * time.Millisecond
}

func (t TimingConfig) HeldInterval() time.Duration {
	return time.Duration(t.HeldIntervalMs) * time.Millisecond
}

type TUIConfig struct {
	Command    string   `yaml:"command" toml:"command"`
	Args       []string `yaml:"args" toml:"args"`
	WorkingDir string   `yaml:"working_dir,omitempty" toml:"working_dir,omitempty"`
	KeyDelayMs int      `yaml:"key_delay_ms,omitempty" toml:"key_delay_ms,omitempty"`
}

// KeyDelay is the pause after each key written to the TUI
func (t TUIConfig) KeyDelay() time.Duration {
	return time.Duration(t.KeyDelayMs) * time.Millisecond
}

type Button struct {
	Index     int        `yaml:"index" toml:"index"`
	Name      string     `yaml:"name,omitempty" toml:"name,omitempty"`
	Press     *KeyAction `yaml:"press,omitempty" toml:"press,omitempty"`
	LongPress *KeyAction `yaml:"long_press,omitempty" toml:"long_press,omitempty"`
	Held      *KeyAction `yaml:"held,omitempty" toml:"held,omitempty"`
	Counter   string     `yaml:"counter,omitempty" toml:"counter,omitempty"`
}

func (b Button) hasKeys() bool {
	return b.Press != nil || b.LongPress != nil || b.Held != nil
}

type KeyAction struct {
	Keys []string `yaml:"keys" toml:"keys"`
}

type Counter struct {
	Name    string `yaml:"name" toml:"name"`
	Step    int    `yaml:"step" toml:"step"`
	Value   int    `yaml:"value" toml:"value"`
	File    string `yaml:"file,omitempty" toml:"file,omitempty"`
	Pattern string `yaml:"pattern,omitempty" toml:"pattern,omitempty"`
}

type DisplayConfig struct {
	Width            int             `yaml:"width" toml:"width"`
	Height           int             `yaml:"height" toml:"height"`
	UpdateIntervalMs int             `yaml:"update_interval_ms" toml:"update_interval_ms"`
	Regions          []DisplayRegion `yaml:"regions,omitempty" toml:"regions,omitempty"`
}

type DisplayRegion struct {
	Name    string `yaml:"name" toml:"name"`
	X       int    `yaml:"x" toml:"x"`
	Y       int    `yaml:"y" toml:"y"`
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`
	Source  string `yaml:"source" toml:"source"`
	Content string `yaml:"content,omitempty" toml:"content,omitempty"`
	Counter string `yaml:"counter,omitempty" toml:"counter,omitempty"`
}

type FeedbackConfig struct {
	BeepOnLongPress bool `yaml:"beep_on_long_press" toml:"beep_on_long_press"`
	BeepOnHeld      bool `yaml:"beep_on_held" toml:"beep_on_held"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// Load reads a YAML (or, by extension, TOML) config file, applies environment
// overrides, validates it and fills in defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := unmarshal(path, data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overrides file settings from the environment. The .env file is
// read on every load so edits to it show up on hot reload; variables set in
// the real environment win over it.
func (c *Config) applyEnv(dir string) error {
	dotenv := map[string]string{}
	envFile := filepath.Join(dir, ".env")
	if Exists(envFile) {
		var err error
		if dotenv, err = godotenv.Read(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}

	if err := envInt(EnvLongPressThreshold, lookup(EnvLongPressThreshold), &c.Timing.LongPressThresholdMs); err != nil {
		return err
	}
	if err := envInt(EnvHeldInterval, lookup(EnvHeldInterval), &c.Timing.HeldIntervalMs); err != nil {
		return err
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

func envInt(key, v string, dst *int) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func (c *Config) validate() error {
	switch c.Input.Source {
	case "", SourceHID:
		if c.Device.VendorID == 0 {
			return errors.New("device.vendor_id is required")
		}
		if c.Device.ProductID == 0 {
			return errors.New("device.product_id is required")
		}
	case SourceEvdev:
		if c.Input.EvdevPath == "" {
			return errors.New("input.evdev_path is required for the evdev source")
		}
		if len(c.Input.EvdevKeys) == 0 && len(c.Input.EvdevDials) == 0 {
			return errors.New("input.evdev_keys or input.evdev_dials must bind at least one input")
		}
	default:
		return fmt.Errorf("unknown input.source %q", c.Input.Source)
	}

	if c.Timing.LongPressThresholdMs < 0 {
		return errors.New("timing.long_press_threshold_ms must not be negative")
	}
	if c.Timing.HeldIntervalMs < 0 {
		return errors.New("timing.held_interval_ms must not be negative")
	}
	if c.TUI.KeyDelayMs < 0 {
		return errors.New("tui.key_delay_ms must not be negative")
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	counters := make(map[string]bool)
	for i, ctr := range c.Counters {
		if ctr.Name == "" {
			return fmt.Errorf("counter %d has no name", i)
		}
		if counters[ctr.Name] {
			return fmt.Errorf("duplicate counter name: %s", ctr.Name)
		}
		counters[ctr.Name] = true
	}

	for _, dial := range c.Input.EvdevDials {
		if !counters[dial.Counter] {
			return fmt.Errorf("dial %d references unknown counter %q", dial.Code, dial.Counter)
		}
	}

	seen := make(map[int]bool)
	for _, btn := range c.Buttons {
		if btn.Index < 0 {
			return fmt.Errorf("button index must not be negative: %d", btn.Index)
		}
		if seen[btn.Index] {
			return fmt.Errorf("duplicate button index: %d", btn.Index)
		}
		seen[btn.Index] = true

		if btn.Counter != "" && !counters[btn.Counter] {
			return fmt.Errorf("button %d references unknown counter %q", btn.Index, btn.Counter)
		}
		if btn.hasKeys() && c.TUI.Command == "" {
			return fmt.Errorf("button %d maps keys but tui.command is not set", btn.Index)
		}
	}

	for _, region := range c.Display.Regions {
		switch region.Source {
		case RegionStatic, RegionGesture:
		case RegionCounter:
			if !counters[region.Counter] {
				return fmt.Errorf("display region %q references unknown counter %q", region.Name, region.Counter)
			}
		default:
			return fmt.Errorf("display region %q has unknown source %q", region.Name, region.Source)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Input.Source == "" {
		c.Input.Source = SourceHID
	}
	if c.Device.PollIntervalMs == 0 {
		c.Device.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.Timing.LongPressThresholdMs == 0 {
		c.Timing.LongPressThresholdMs = DefaultLongPressThresholdMs
	}
	if c.Timing.HeldIntervalMs == 0 {
		c.Timing.HeldIntervalMs = DefaultHeldIntervalMs
	}
	for i := range c.Counters {
		if c.Counters[i].Step == 0 {
			c.Counters[i].Step = 1
		}
	}
	if c.Display.Width == 0 {
		c.Display.Width = 128
	}
	if c.Display.Height == 0 {
		c.Display.Height = 64
	}
	if c.Display.UpdateIntervalMs == 0 {
		c.Display.UpdateIntervalMs = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var (
	vendorIDPattern  = regexp.MustCompile(`(?m)^(\s*vendor_id\s*[:=]\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	productIDPattern = regexp.MustCompile(`(?m)^(\s*product_id\s*[:=]\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
)

// UpdateDeviceIDs rewrites vendor_id and product_id in place, keeping the
// rest of the file (comments included) untouched
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := vendorIDPattern.ReplaceAllString(string(data), fmt.Sprintf("${1}0x%04X", vendorID))
	content = productIDPattern.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const defaultConfigTemplate = `# presspad configuration

device:
  vendor_id: 0x%04X
  product_id: 0x%04X
  poll_interval_ms: 1000

input:
  source: hid

timing:
  long_press_threshold_ms: %d
  held_interval_ms: %d

counters:
  - name: counter
    step: 1
    value: 0

buttons:
  - index: 0
    name: counter
    counter: counter

display:
  width: 128
  height: 64
  update_interval_ms: 100
  regions:
    - name: value
      x: 0
      y: 0
      width: 128
      height: 32
      source: counter
      counter: counter
    - name: last
      x: 0
      y: 32
      width: 128
      height: 32
      source: gesture

feedback:
  beep_on_long_press: false

log:
  level: info
`

// CreateDefaultConfig writes a starter config for the given device
func CreateDefaultConfig(path string, vendorID, productID uint16) error {
	content := fmt.Sprintf(defaultConfigTemplate, vendorID, productID,
		DefaultLongPressThresholdMs, DefaultHeldIntervalMs)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
