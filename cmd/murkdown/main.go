package main

import (
	"fmt"
	"os"
)

const appName = "murkdown"

var (
	flagAs          string
	flagOutput      string
	flagLog         string
	flagInteractive bool
	flagKeepGoing   bool
	flagSubprocCap  int
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagAs, "as", "", "bundled ruleset alias (e.g. \"simple website\")")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "output directory, or \"stdout\" to write the single-path build to stdout")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "", "log format: \"tui\" for a progress view on multi-path builds")
	rootCmd.PersistentFlags().BoolVar(&flagInteractive, "interactive", false, "pick a ruleset and confirm before building")
	rootCmd.PersistentFlags().BoolVar(&flagKeepGoing, "keep-going", false, "continue past node-local compile errors with best-effort output")
	rootCmd.PersistentFlags().IntVar(&flagSubprocCap, "subproc-cap", 0, "max concurrent EXEC subprocesses (default: MD_SUBPROC_CAP or host CPU count)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(exitCodeFor(err))
	}
}
