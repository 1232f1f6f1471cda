package main

import (
	"os"

	"github.com/pleimann/presspad/internal/ui"
)

const Version = "0.2.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ui.PrintFatalError("presspad failed", err.Error())
		os.Exit(1)
	}
}
