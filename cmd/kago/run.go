package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/kago/sandbox"
)

var runCmd = &cobra.Command{
	Use:   "run <guest.wasm>",
	Short: "Execute a guest module deterministically",
	Long: `Execute a guest WASM module under deterministic configuration: a
pinned wall clock, a counted monotonic clock, and a seeded entropy
source. Host modules are reachable only under their sandbox-namespace
names.

With --verify the guest runs twice and the output digests must match;
a mismatch means the guest observed host nondeterminism and the command
exits non-zero.`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().Int64("seed", 1, "Entropy seed for the guest")
	runCmd.Flags().Int64("epoch", 0, "Unix time the guest's wall clock reports")
	runCmd.Flags().Duration("timeout", 30*time.Second, "Host-side execution timeout")
	runCmd.Flags().StringSlice("arg", nil, "Guest argv entry (repeatable)")
	runCmd.Flags().Uint32("memory", 0, "Guest memory limit in 64KB pages (0 = default)")
	runCmd.Flags().Bool("verify", false, "Run twice and require identical output digests")
	runCmd.Flags().Bool("digest", false, "Print the output digest to stderr")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	seed, _ := cmd.Flags().GetInt64("seed")
	epoch, _ := cmd.Flags().GetInt64("epoch")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	guestArgs, _ := cmd.Flags().GetStringSlice("arg")
	memory, _ := cmd.Flags().GetUint32("memory")
	verify, _ := cmd.Flags().GetBool("verify")
	printDigest, _ := cmd.Flags().GetBool("digest")

	guest, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sb, cfg, err := newContext(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !cmd.Flags().Changed("seed") && cfg.Seed != 0 {
		seed = cfg.Seed
	}

	ctx := context.Background()

	var rtOpts []sandbox.RuntimeOption
	if memory > 0 {
		rtOpts = append(rtOpts, sandbox.WithMemoryLimit(memory))
	}
	rt, err := sb.NewRuntime(ctx, rtOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	runOpts := []sandbox.RunOption{
		sandbox.WithSeed(seed),
		sandbox.WithEpoch(time.Unix(epoch, 0)),
		sandbox.WithTimeout(timeout),
		sandbox.WithArgs(guestArgs...),
	}

	result := rt.Run(ctx, guest, runOpts...)
	fmt.Print(result.Output)
	if result.Error != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", result.Error)
		os.Exit(1)
	}
	if printDigest {
		fmt.Fprintf(os.Stderr, "digest: %x\n", result.Digest)
	}

	if verify {
		again := rt.Run(ctx, guest, runOpts...)
		if again.Error != nil {
			fmt.Fprintf(os.Stderr, "Error: verification run: %v\n", again.Error)
			os.Exit(1)
		}
		if again.Digest != result.Digest {
			fmt.Fprintf(os.Stderr, "Error: output digests differ (%x vs %x): guest observed nondeterminism\n",
				result.Digest, again.Digest)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "verified: identical output across runs")
	}
}
