package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of mj (overridden by ldflags at build time)
	Version = "0.1.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
)

// resolveCommitHash reads the VCS revision stamped by the Go toolchain.
func resolveCommitHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			commit := resolveCommitHash()
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{
					"version": Version,
					"build":   Build,
					"commit":  commit,
				})
			}
			if commit != "" {
				c.printf("mj version %s (%s: %s)\n", Version, Build, commit)
				return nil
			}
			c.printf("mj version %s (%s)\n", Version, Build)
			return nil
		},
	}
}
