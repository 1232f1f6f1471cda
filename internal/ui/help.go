package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pleimann/presspad/internal/utils"
)

// Banner returns the program name, version and tagline
func Banner(version string) string {
	return fmt.Sprintf("%s %s\n%s",
		TitleStyle.Render(utils.ExecutableName()),
		MutedStyle.Render("v"+version),
		Muted("Short press, long press and held-button repeat for macropads"),
	)
}

// Example is a command line with a one-line description
type Example struct {
	Cmd  string
	Desc string
}

// FormatExamples lines up example commands and their descriptions
func FormatExamples(examples []Example) string {
	width := 0
	for _, ex := range examples {
		width = max(width, len(ex.Cmd))
	}

	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteByte('\n')
		}
		padding := strings.Repeat(" ", width-len(ex.Cmd)+2)
		fmt.Fprintf(&b, "  %s%s%s", AccentStyle.Render(ex.Cmd), padding, Muted(ex.Desc))
	}
	return b.String()
}

// RootExamples are shown in the top-level help
func RootExamples() string {
	name := utils.ExecutableName()
	return FormatExamples([]Example{
		{name, "Run with config.yaml"},
		{name + " --config pad.toml", "Run with a TOML config"},
		{name + " list-devices", "List connected HID devices"},
		{name + " list-devices --evdev", "List Linux input devices"},
		{name + " set-device", "Pick the device interactively"},
		{name + " set-device 0x1234 0x5678", "Set the device by vendor/product ID"},
	})
}

// PrintVersion displays the styled version information
func PrintVersion(version string) {
	fmt.Printf("%s %s\n", TitleStyle.Render(utils.ExecutableName()), SuccessStyle.Render("v"+version))
}

// PrintFatalError writes a styled error with context to stderr
func PrintFatalError(context, message string) {
	printFatalError(os.Stderr, context, message)
}

func printFatalError(w io.Writer, context, message string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, Error(context))
	fmt.Fprintf(w, "  %s\n", Muted(message))
	fmt.Fprintln(w)
}

// Startup summarizes what the middleware is about to run
type Startup struct {
	ConfigPath string
	Source     string
	Device     string
	Threshold  time.Duration
	Interval   time.Duration
	Buttons    int
	Command    string
}

// PrintStartup shows the startup summary in a box
func PrintStartup(s Startup) {
	fmt.Println(RenderStartup(s))
}

// RenderStartup returns the startup summary box
func RenderStartup(s Startup) string {
	rows := [][2]string{
		{"Config", s.ConfigPath},
		{"Input", s.Source + " " + s.Device},
		{"Long press", s.Threshold.String()},
		{"Held repeat", s.Interval.String()},
		{"Buttons", fmt.Sprintf("%d configured", s.Buttons)},
	}
	if s.Command != "" {
		rows = append(rows, [2]string{"TUI", s.Command})
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = fmt.Sprintf("%s %s", MutedStyle.Width(12).Render(row[0]+":"), row[1])
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}
