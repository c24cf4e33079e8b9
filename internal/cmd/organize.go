package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/deeporganizer/internal/config"
	"github.com/harrison/deeporganizer/internal/display"
	"github.com/harrison/deeporganizer/internal/filelock"
	"github.com/harrison/deeporganizer/internal/logger"
	"github.com/harrison/deeporganizer/internal/models"
	"github.com/harrison/deeporganizer/internal/organizer"
	"github.com/harrison/deeporganizer/internal/planner"
)

// NewOrganizeCommand creates the organize command
func NewOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize [directory]",
		Short: "Plan and apply an organization of a directory",
		Long: `Scan a directory, sample each file, ask the configured model for a plan,
and apply it.

The plan may only create folders directly under the directory and move
files into them. Every action is checked right before it runs; rejected
actions are reported and never stop the rest of the plan.

Model identifiers have the form provider:model:
  claude:sonnet             Claude Code CLI (default)
  anthropic:claude-sonnet-4 Anthropic API (ANTHROPIC_API_KEY)
  openai:gpt-4o-mini        OpenAI API (OPENAI_API_KEY)
  gemini:gemini-2.0-flash   Gemini API (GEMINI_API_KEY)
  file:plan.yaml            Replay a saved plan

Examples:
  deeporganizer organize ~/Downloads --dry-run
  deeporganizer organize ~/Downloads --model openai:gpt-4o-mini
  deeporganizer organize . --save-plan plan.yaml --dry-run
  deeporganizer organize . --exclude-pattern '**/*.lock' --recursive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runOrganize,
	}

	addScanFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Report what would change without touching anything")
	cmd.Flags().String("model", "", "Planner as provider:model (default: config or "+planner.DefaultModel+")")
	cmd.Flags().String("save-plan", "", "Write the plan to this file before executing it")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().Bool("verbose", false, "Log debug messages")
	cmd.Flags().String("log-dir", "", "Directory for run logs (default: $DEEPORGANIZER_HOME/logs)")

	return cmd
}

func runOrganize(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	root := s.rootArg(args, 0)
	jsonOut, _ := cmd.Flags().GetBool("json")
	savePlan, _ := cmd.Flags().GetString("save-plan")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Progress goes to stderr when stdout carries JSON.
	var progress io.Writer = cmd.OutOrStdout()
	if jsonOut {
		progress = cmd.ErrOrStderr()
	}
	console := logger.NewConsoleLogger(progress, s.cfg.LogLevel)
	logs := &multiLogger{loggers: []runLogger{console}}

	fileLog, err := logger.NewFileLogger(s.cfg.LogDir, s.cfg.LogLevel)
	if err != nil {
		console.LogWarn(fmt.Sprintf("Run log disabled: %v", err))
	} else {
		defer fileLog.Close()
		logs.loggers = append(logs.loggers, fileLog)
		console.LogDebug("Run log: " + fileLog.Path())
	}

	p, err := planner.New(ctx, s.cfg.Model, planner.Options{
		Timeout:    s.cfg.PlannerTimeout,
		ClaudePath: s.cfg.ClaudePath,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := organizer.Options{
		Root:            root,
		DryRun:          s.cfg.DryRun,
		MaxFileReadSize: s.cfg.MaxFileReadSize,
		Protected:       s.protected(),
		Recursive:       s.cfg.Recursive,
		Planner:         p,
		Logger:          logs,
	}
	if store := s.openHistory(console.LogWarn); store != nil {
		defer store.Close()
		opts.History = store
	}
	if savePlan != "" {
		opts.PlanHook = func(plan *models.OrganizationPlan) error {
			data, err := planner.MarshalPlan(plan)
			if err != nil {
				return err
			}
			if err := filelock.AtomicWrite(savePlan, data, 0644); err != nil {
				return err
			}
			console.LogInfo("Plan saved to " + savePlan)
			return nil
		}
	}

	org, err := organizer.New(opts)
	if err != nil {
		return err
	}

	lock, err := filelock.AcquireRootLock(config.LocksDir(s.home), org.Root())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	summary, runErr := org.Organize(ctx)
	if summary == nil {
		return runErr
	}

	if err := writeSummary(cmd.OutOrStdout(), summary, jsonOut); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d action(s) failed", summary.Failed)
	}
	return nil
}

func writeSummary(out io.Writer, summary *models.OrganizationSummary, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		return nil
	}
	fmt.Fprintln(out)
	display.RenderSummary(out, summary, display.ColorEnabled(out))
	return nil
}
