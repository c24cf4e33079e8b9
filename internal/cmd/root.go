package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for deeporganizer
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deeporganizer",
		Short: "Organize a directory into folders with a language model",
		Long: `DeepOrganizer samples the files of a directory, asks a language model
where each one belongs, and applies the resulting plan of folder creations
and file moves.

Every action is validated immediately before it runs: nothing outside the
target directory is touched, protected files and folders (.env, .git, venv,
...) are never read or moved, and existing files are never overwritten.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error
		SilenceErrors: true,
	}

	cmd.AddCommand(NewOrganizeCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deeporganizer %s\n", cmd.Root().Version)
		},
	}
}
