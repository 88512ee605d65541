package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/kago/namespace"
)

var enumsCmd = &cobra.Command{
	Use:   "enums <classset.yaml> <type>",
	Short: "Dump an enum's constant universe",
	Long: `Prepare a class set, then resolve the named enum type and print its
ordered constant universe. The type may be given in host or sandbox
form.`,
	Args: cobra.ExactArgs(2),
	Run:  runEnums,
}

func init() {
	rootCmd.AddCommand(enumsCmd)
}

func runEnums(cmd *cobra.Command, args []string) {
	sb, _, err := newContext(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	classes, err := loadClassSet(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, c := range classes {
		if _, err := sb.Prepare(c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: prepare %s: %v\n", c.Name, err)
			os.Exit(1)
		}
	}

	name := sb.Resolver().ToSandbox(namespace.HostName(args[1]))
	universe, err := sb.Enums().Universe(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s (%d constants)\n", name, len(universe))
	for _, constant := range universe {
		fmt.Printf("%4d  %s\n", constant.Ordinal, constant.Name)
	}
}
