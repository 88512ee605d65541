package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kago",
	Short: "Deterministic sandbox for untrusted guest code",
	Long: `kago - Prepare classes for an isolated namespace and execute guest
modules deterministically.

Class references are rewritten into the sandbox namespace during
preparation; guest modules run under a pinned clock and seeded entropy
so identical inputs produce bit-identical outputs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
}
