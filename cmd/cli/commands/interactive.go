package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd keeps one initialised app (and one OAuth session) across many commands
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Run several commands in one session",
		Long: `Start a session where commands share one database connection and one
Google authorisation. Type 'help' for commands, 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, os.Stdin)
		},
	}
}

func runSession(cmd *cobra.Command, in io.Reader) error {
	out := cmd.OutOrStdout()
	commands := sessionCommands(cmd.Parent())
	fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name, cmdArgs := parts[0], parts[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			printSessionHelp(out, commands)
			continue
		}

		target, ok := commands[name]
		if !ok {
			fmt.Fprintf(out, "%s unknown command %q\n\n", color.New(color.FgRed).Sprint("✗"), name)
			continue
		}
		if err := runInSession(target, cmdArgs); err != nil {
			fmt.Fprintf(out, "%s %v\n\n", color.New(color.FgRed).Sprint("✗"), err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// runInSession calls RunE directly so PersistentPreRunE does not initialise the app again
func runInSession(target *cobra.Command, args []string) error {
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := target.ParseFlags(args); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	args = target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			return err
		}
	}
	if target.RunE != nil {
		return target.RunE(target, args)
	}
	if target.Run != nil {
		target.Run(target, args)
	}
	return nil
}

func sessionCommands(root *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	if root == nil {
		return commands
	}
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "interactive", "serve", "completion", "help":
			continue
		}
		commands[sub.Name()] = sub
	}
	return commands
}

func printSessionHelp(w io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(w, "\nAvailable commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-40s %s\n", commands[name].Use, commands[name].Short)
	}
	fmt.Fprintln(w, "\n  help                                     Show this help message")
	fmt.Fprintln(w, "  exit, quit                               Leave the session")
	fmt.Fprintln(w)
}
