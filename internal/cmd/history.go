package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/deeporganizer/internal/display"
	"github.com/harrison/deeporganizer/internal/history"
)

// NewHistoryCommand creates the history command and its subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded organize runs",
		Long: `List the organize runs recorded in the history database, newest first.

Examples:
  deeporganizer history
  deeporganizer history --root ~/Downloads --limit 5
  deeporganizer history show <run-id>`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}
	cmd.PersistentFlags().String("config", "", "Path to config file (default: $DEEPORGANIZER_HOME/config.yaml)")
	cmd.Flags().String("root", "", "Only list runs over this directory")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show every action of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	})
	return cmd
}

func openHistoryStore(cmd *cobra.Command) (*history.Store, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if !s.cfg.History.Enabled {
		return nil, fmt.Errorf("run history is disabled in the configuration")
	}
	return history.NewStore(s.cfg.History.DBPath)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	root, _ := cmd.Flags().GetString("root")
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), root, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	t := &display.Table{Headers: []string{"RUN ID", "STARTED", "ROOT", "MODEL", "MODE", "MOVED", "REJECTED", "FAILED"}}
	for _, r := range runs {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Root,
			r.Model,
			runMode(r),
			strconv.Itoa(r.FilesMoved),
			strconv.Itoa(r.Rejected),
			strconv.Itoa(r.Failed),
		})
	}
	t.Render(out)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	actions, err := store.ActionResults(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeRunHeader(out, run)
	if len(actions) == 0 {
		fmt.Fprintln(out, "No actions were executed.")
		return nil
	}
	t := &display.Table{Headers: []string{"#", "ACTION", "SUBJECT", "FOLDER", "OUTCOME", "MESSAGE"}}
	for _, a := range actions {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(a.Seq + 1),
			string(a.Kind),
			a.Subject,
			a.Folder,
			string(a.Outcome),
			a.Message,
		})
	}
	t.Render(out)
	return nil
}

func writeRunHeader(out io.Writer, r *history.Run) {
	fmt.Fprintf(out, "Run:      %s\n", r.ID)
	fmt.Fprintf(out, "Root:     %s\n", r.Root)
	fmt.Fprintf(out, "Model:    %s\n", r.Model)
	fmt.Fprintf(out, "Started:  %s (%s)\n", r.StartedAt.Local().Format(time.DateTime), r.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Mode:     %s\n", runMode(r))
	fmt.Fprintf(out, "Result:   %d scanned, %d folder(s) created, %d moved, %d skipped, %d rejected, %d failed\n",
		r.FilesScanned, r.FoldersCreated, r.FilesMoved, r.Skipped, r.Rejected, r.Failed)
	if r.Canceled {
		fmt.Fprintf(out, "Canceled: %d action(s) not attempted\n", r.NotAttempted)
	}
	if r.Notes != "" {
		fmt.Fprintf(out, "Notes:    %s\n", r.Notes)
	}
	fmt.Fprintln(out)
}

func runMode(r *history.Run) string {
	switch {
	case r.Canceled:
		return "canceled"
	case r.DryRun:
		return "dry run"
	default:
		return "applied"
	}
}
