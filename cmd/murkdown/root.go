package main

import (
	"github.com/spf13/cobra"
)

// rootCmd mirrors the teacher's cmd_root.go shape: a thin cobra command
// whose RunE dispatches into the package doing the real work, with the CLI
// package itself owning only flag wiring and error-to-exit-code mapping.
var rootCmd = &cobra.Command{
	Use:   appName + " [command]",
	Short: appName + " compiles Murkdown documents into rendered output",
	Long: appName + " compiles Murkdown documents into rendered output.\n\n" +
		"Primary verb: build [--as <ruleset-alias>] [--output <dir|stdout>] [--log <fmt>] [--interactive] PATH...",
}

var buildCmd = &cobra.Command{
	Use:   "build PATH...",
	Short: "Build one or more Murkdown documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagInteractive {
			return runInteractive(args)
		}
		return runBuild(args)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
