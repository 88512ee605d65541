package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/sandbox"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive namespace inspection shell",
	Long: `Start an interactive shell against a sandbox context.

Commands:
  map <name>                 Map a host class name into the sandbox
  unmap <name>               Map a sandbox class name back to the host
  desc <descriptor>          Rewrite a field or method descriptor
  method <name> <descriptor> Rewrite a method reference
  enum <type>                Show an enum's constant universe
  load <classset.yaml>       Prepare a class set into the context
  types                      Count of registered types
  exit                       Leave the shell

Type 'exit' or press Ctrl+D to quit.`,
	Run: runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.kago_history)")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) {
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".kago_history")
	}

	sb, _, err := newContext(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "kago> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(os.Stderr, "kago shell, prefix %q (type 'exit' to quit)\n", sb.Resolver().Prefix())

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println()
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if err := dispatch(sb, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func dispatch(sb *sandbox.Context, line string) error {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "map":
		if len(args) != 1 {
			return fmt.Errorf("usage: map <name>")
		}
		mapped, err := sb.Preparer().Remapper().ClassName(args[0])
		if err != nil {
			return err
		}
		fmt.Println(mapped)

	case "unmap":
		if len(args) != 1 {
			return fmt.Errorf("usage: unmap <name>")
		}
		fmt.Println(sb.Resolver().ToHost(namespace.SandboxName(args[0])))

	case "desc":
		if len(args) != 1 {
			return fmt.Errorf("usage: desc <descriptor>")
		}
		rewritten, err := sb.Preparer().Remapper().Descriptor(args[0])
		if err != nil {
			return err
		}
		fmt.Println(rewritten)

	case "method":
		if len(args) != 2 {
			return fmt.Errorf("usage: method <name> <descriptor>")
		}
		ref, err := sb.Preparer().Remapper().MethodRef(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", ref.Name, ref.Descriptor)

	case "enum":
		if len(args) != 1 {
			return fmt.Errorf("usage: enum <type>")
		}
		name := sb.Resolver().ToSandbox(namespace.HostName(args[0]))
		universe, err := sb.Enums().Universe(name)
		if err != nil {
			return err
		}
		for _, constant := range universe {
			fmt.Printf("%4d  %s\n", constant.Ordinal, constant.Name)
		}

	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <classset.yaml>")
		}
		classes, err := loadClassSet(args[0])
		if err != nil {
			return err
		}
		for _, c := range classes {
			if _, err := sb.Prepare(c); err != nil {
				return fmt.Errorf("prepare %s: %w", c.Name, err)
			}
		}
		fmt.Printf("prepared %d classes\n", len(classes))

	case "types":
		fmt.Println(sb.Types().Len())

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
