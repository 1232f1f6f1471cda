package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// DeviceInfo contains information about a HID device for display
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
}

// InputDevice is a Linux input device node
type InputDevice struct {
	Path string
	Name string
}

func deviceID(vendorID, productID uint16) string {
	return fmt.Sprintf("0x%04X:0x%04X", vendorID, productID)
}

// picker runs a huh select inside Bubble Tea so esc and q cancel it
type picker struct {
	form      *huh.Form
	cancelled bool
}

func (p picker) Init() tea.Cmd {
	return p.form.Init()
}

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "q":
			p.cancelled = true
			return p, tea.Quit
		}
	}

	model, cmd := p.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		p.form = form
	}
	if p.form.State == huh.StateCompleted {
		return p, tea.Quit
	}
	return p, cmd
}

func (p picker) View() string {
	if p.form.State == huh.StateCompleted {
		return ""
	}
	return p.form.View()
}

// SelectDevice asks the user to pick one of devices. It returns nil when the
// user cancels.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, errors.New("no devices to select from")
	}

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		label := fmt.Sprintf("%s  %s", DeviceIDStyle.Render(deviceID(d.VendorID, d.ProductID)), formatDeviceName(d))
		options[i] = huh.NewOption(label, i)
	}

	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select presspad device").
				Description("Buttons on this device will be watched for presses (esc to cancel)").
				Options(options...).
				Value(&choice),
		),
	).WithTheme(customTheme()).WithShowHelp(false)

	final, err := tea.NewProgram(picker{form: form}).Run()
	if err != nil {
		return nil, err
	}
	if final.(picker).cancelled {
		return nil, nil
	}
	return &devices[choice], nil
}

// formatDeviceName creates a readable name for the device
func formatDeviceName(d DeviceInfo) string {
	name := d.Product
	if name == "" {
		name = "Unknown Device"
	}
	if d.Manufacturer != "" {
		name = d.Manufacturer + " " + name
	}
	return name
}

// PrintDeviceList displays a styled list of HID devices
func PrintDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Warning("No HID devices found"))
		return
	}

	fmt.Println()
	fmt.Println(Title("HID Devices"))
	fmt.Println(Muted(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Println()
	for _, d := range devices {
		fmt.Printf("  %s  %s\n", DeviceIDStyle.Render(deviceID(d.VendorID, d.ProductID)), DeviceNameStyle.Render(formatDeviceName(d)))
	}
	fmt.Println()
}

// PrintInputDevices displays Linux input devices that report key events
func PrintInputDevices(devices []InputDevice) {
	if len(devices) == 0 {
		fmt.Println(Warning("No readable input devices found"))
		fmt.Println(Muted("  Reading /dev/input usually requires the input group or root"))
		return
	}

	fmt.Println()
	fmt.Println(Title("Input Devices"))
	fmt.Println()
	for _, d := range devices {
		fmt.Printf("  %s  %s\n", DeviceIDStyle.Render(d.Path), DeviceNameStyle.Render(d.Name))
	}
	fmt.Println()
	fmt.Println(Muted("Bind key codes under input.evdev_keys and dial axes under input.evdev_dials"))
	fmt.Println()
}

// PrintDeviceSaved confirms the device written to the config file
func PrintDeviceSaved(configPath string, vendorID, productID uint16, created bool) {
	msg := "Device configuration updated"
	if created {
		msg = "Device configuration created"
	}

	fmt.Println()
	fmt.Println(Success(msg))
	fmt.Println()
	fmt.Printf("  %s %s\n", Muted("Config:"), configPath)
	fmt.Printf("  %s %s\n", Muted("Device:"), DeviceIDStyle.Render(deviceID(vendorID, productID)))
	fmt.Println()
}

// customTheme returns a custom huh theme matching our style palette
func customTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(ColorHeading).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorAccent)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(ColorText)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorAccent)

	return t
}
