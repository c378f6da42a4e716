// Package main is the entry point for the yabsnap-deploy binary.
package main

import (
	"os"

	"github.com/yabsnap/yabsnap-deploy/cmd/yabsnap-deploy/cmd"
	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(exitcode.Get(err))
	}
}
