package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/deeporganizer/internal/logger"
	"github.com/harrison/deeporganizer/internal/organizer"
	"github.com/harrison/deeporganizer/internal/planner"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan-file> [directory]",
		Short: "Check a saved plan against a directory without changing it",
		Long: `Run a saved plan (YAML or JSON, as written by organize --save-plan) as a
dry run against a directory and report which actions a real run would
apply, reject, or fail. Nothing is changed and nothing is recorded.

Exits non-zero when any action would be rejected or fail.

Examples:
  deeporganizer validate plan.yaml ~/Downloads
  deeporganizer validate plan.json . --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runValidate,
	}
	addScanFlags(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	root := s.rootArg(args, 1)
	jsonOut, _ := cmd.Flags().GetBool("json")

	var logs organizer.Logger = logger.NewConsoleLogger(cmd.ErrOrStderr(), "warn")
	if jsonOut {
		logs = logger.NewNoOpLogger()
	}

	org, err := organizer.New(organizer.Options{
		Root:            root,
		DryRun:          true,
		MaxFileReadSize: s.cfg.MaxFileReadSize,
		Protected:       s.protected(),
		Recursive:       s.cfg.Recursive,
		Planner:         planner.NewStaticPlanner(args[0]),
		Logger:          logs,
	})
	if err != nil {
		return err
	}

	summary, runErr := org.Organize(cmd.Context())
	if summary == nil {
		return runErr
	}
	if err := writeSummary(cmd.OutOrStdout(), summary, jsonOut); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if bad := summary.WouldReject + summary.WouldFail; bad > 0 {
		return fmt.Errorf("plan has %d action(s) that would not apply", bad)
	}
	return nil
}
