package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pleimann/presspad/internal/config"
	"github.com/pleimann/presspad/internal/evdev"
	"github.com/pleimann/presspad/internal/hid"
	"github.com/pleimann/presspad/internal/ui"
	"github.com/pleimann/presspad/internal/utils"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           utils.ExecutableName(),
		Short:         "Short press, long press and held-button repeat for macropads",
		Long:          ui.Banner(Version),
		Example:       ui.RootExamples(),
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to configuration file (.yaml or .toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newListDevicesCmd(),
		newSetDeviceCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func runApp(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	defer watcher.Stop()

	cfg := watcher.Get()
	closeLog, err := setupLogging(cfg.Log, opts.verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	app, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ui.PrintStartup(startupSummary(opts.configPath, cfg))

	watcher.OnReload(func(cfg *config.Config) {
		setLogLevel(cfg.Log, opts.verbose)
		app.Reload(cfg)
	})
	watcher.Start()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}

func startupSummary(path string, cfg *config.Config) ui.Startup {
	s := ui.Startup{
		ConfigPath: path,
		Source:     cfg.Input.Source,
		Threshold:  cfg.Timing.LongPressThreshold(),
		Interval:   cfg.Timing.HeldInterval(),
		Buttons:    len(cfg.Buttons),
		Command:    strings.TrimSpace(cfg.TUI.Command + " " + strings.Join(cfg.TUI.Args, " ")),
	}
	if cfg.Input.Source == config.SourceEvdev {
		s.Device = cfg.Input.EvdevPath
	} else {
		s.Device = fmt.Sprintf("0x%04X:0x%04X", cfg.Device.VendorID, cfg.Device.ProductID)
	}
	return s
}

func newListDevicesCmd() *cobra.Command {
	var useEvdev bool

	cmd := &cobra.Command{
		Use:   "list-devices",
		Short: "List available HID devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if useEvdev {
				devices, err := evdev.List()
				if err != nil {
					return err
				}
				inputs := make([]ui.InputDevice, len(devices))
				for i, d := range devices {
					inputs[i] = ui.InputDevice{Path: d.Path, Name: d.Name}
				}
				ui.PrintInputDevices(inputs)
				return nil
			}

			devices, err := hid.ListDevices()
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}
			ui.PrintDeviceList(toUIDevices(devices))
			return nil
		},
	}

	cmd.Flags().BoolVar(&useEvdev, "evdev", false, "list Linux input devices instead of HID devices")
	return cmd
}

func newSetDeviceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-device [vendor_id product_id]",
		Short: "Set the HID device in the config file",
		Long: "Set the HID device in the configuration file.\n\n" +
			"With vendor_id and product_id (hex with 0x prefix, or decimal) the config is\n" +
			"updated directly. Without them a list of connected devices is shown.\n" +
			"A starter config is created when the file does not exist.",
		Example: ui.FormatExamples([]ui.Example{
			{Cmd: utils.ExecutableName() + " set-device", Desc: "Interactive selection"},
			{Cmd: utils.ExecutableName() + " set-device 0x1234 0x5678", Desc: "Direct specification"},
			{Cmd: utils.ExecutableName() + " set-device -c pad.yaml", Desc: "Use a different config"},
		}),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 || len(args) > 2 {
				return errors.New("both vendor_id and product_id must be provided, or neither")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var vendorID, productID uint16

			if len(args) == 2 {
				var err error
				if vendorID, err = parseID(args[0]); err != nil {
					return fmt.Errorf("invalid vendor_id %q: %w", args[0], err)
				}
				if productID, err = parseID(args[1]); err != nil {
					return fmt.Errorf("invalid product_id %q: %w", args[1], err)
				}
			} else {
				device, err := selectDevice()
				if err != nil {
					return fmt.Errorf("device selection failed: %w", err)
				}
				if device == nil {
					fmt.Println(ui.Muted("No device selected"))
					return nil
				}
				vendorID, productID = device.VendorID, device.ProductID
			}

			return saveDevice(opts.configPath, vendorID, productID)
		},
	}
}

func saveDevice(path string, vendorID, productID uint16) error {
	if config.Exists(path) {
		if err := config.UpdateDeviceIDs(path, vendorID, productID); err != nil {
			return err
		}
		ui.PrintDeviceSaved(path, vendorID, productID, false)
		return nil
	}

	if err := config.CreateDefaultConfig(path, vendorID, productID); err != nil {
		return err
	}
	ui.PrintDeviceSaved(path, vendorID, productID, true)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersion(Version)
		},
	}
}

// parseID parses a vendor or product ID, hex with a 0x prefix or decimal
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s, base = s[2:], 16
	}

	val, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}

func toUIDevices(devices []hid.DeviceInfo) []ui.DeviceInfo {
	out := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
		}
	}
	return out
}

func selectDevice() (*ui.DeviceInfo, error) {
	devices, err := hid.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, errors.New("no HID devices found")
	}

	unique := hid.Unique(devices)
	if len(unique) == 0 {
		return nil, errors.New("no identifiable HID devices found")
	}
	return ui.SelectDevice(toUIDevices(unique))
}
