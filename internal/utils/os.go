package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultName = "presspad"

// ExecutableName returns the name the binary was installed under, without a
// Windows .exe suffix
func ExecutableName() string {
	executable, err := os.Executable()
	if err != nil {
		return defaultName
	}
	return strings.TrimSuffix(filepath.Base(executable), ".exe")
}
