package main

import (
	"fmt"
	"os"

	"github.com/scil-audit/scil-go/cmd"
	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	var closeLog func() error
	if settings.Main.Log.Enabled {
		closeLog = logging.InitWithFile(settings.Debug, settings.Main.Log.Path)
	} else {
		logging.Init(settings.Debug)
		closeLog = func() error { return nil }
	}
	defer func() { _ = closeLog() }()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
