package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/kago/prepare"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <classset.yaml>",
	Short: "Remap a class set into the sandbox namespace",
	Long: `Read a YAML class set, rewrite every class, field and method
reference into the sandbox namespace, and print the prepared classes.

A reference to a type outside the configured allow list fails the whole
run; resolution failures are never silently passed through.`,
	Args: cobra.ExactArgs(1),
	Run:  runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

type preparedEntry struct {
	Name       string        `yaml:"name"`
	Super      string        `yaml:"super"`
	Interfaces []string      `yaml:"interfaces,omitempty"`
	Fields     []memberEntry `yaml:"fields,omitempty"`
	Methods    []memberEntry `yaml:"methods,omitempty"`
	Constants  []string      `yaml:"constants,omitempty"`
	Digest     string        `yaml:"digest"`
}

func runPrepare(cmd *cobra.Command, args []string) {
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

	var out []preparedEntry
	for _, c := range classes {
		prepared, err := sb.Prepare(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: prepare %s: %v\n", c.Name, err)
			os.Exit(1)
		}
		out = append(out, toEntry(prepared))
	}

	data, err := yaml.Marshal(map[string][]preparedEntry{"classes": out})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func toEntry(p *prepare.Prepared) preparedEntry {
	entry := preparedEntry{
		Name:      string(p.Name),
		Super:     string(p.Super),
		Constants: p.Constants,
		Digest:    fmt.Sprintf("%x", p.Digest),
	}
	for _, iface := range p.Interfaces {
		entry.Interfaces = append(entry.Interfaces, string(iface))
	}
	for _, f := range p.Fields {
		entry.Fields = append(entry.Fields, memberEntry{Name: f.Name, Descriptor: f.Descriptor})
	}
	for _, m := range p.Methods {
		entry.Methods = append(entry.Methods, memberEntry{Name: m.Name, Descriptor: m.Descriptor})
	}
	return entry
}
