package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/deeporganizer/internal/display"
	"github.com/harrison/deeporganizer/internal/logger"
	"github.com/harrison/deeporganizer/internal/models"
	"github.com/harrison/deeporganizer/internal/organizer"
	"github.com/harrison/deeporganizer/internal/planner"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Show what would be sent to the model",
		Long: `List the entries of a directory together with the content sample that
would be sent to the model. Protected entries and folders created by
earlier runs are left out, exactly as in organize. Nothing is planned or
changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
	addScanFlags(cmd)
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	root := s.rootArg(args, 0)
	jsonOut, _ := cmd.Flags().GetBool("json")

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), s.cfg.LogLevel)
	opts := organizer.Options{
		Root:            root,
		MaxFileReadSize: s.cfg.MaxFileReadSize,
		Protected:       s.protected(),
		Recursive:       s.cfg.Recursive,
		Planner:         scanOnly{},
		Logger:          console,
	}
	if store := s.openHistory(console.LogWarn); store != nil {
		defer store.Close()
		opts.History = store
	}

	org, err := organizer.New(opts)
	if err != nil {
		return err
	}
	inv, err := org.Preview(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeInventoryJSON(out, inv)
	}

	display.RenderInventory(out, inv.Entries, inv.Samples)
	fmt.Fprintf(out, "\n%d file(s) would be sampled, %d folder(s) available as destinations.\n",
		len(inv.Samples), len(inv.Folders))

	if len(inv.Excluded) > 0 {
		display.Warning{
			Title:      "Folders from earlier runs are not rescanned",
			Message:    "These folders were created by a previous organize run and are left as they are.",
			Files:      inv.Excluded,
			Suggestion: "Use --no-history on organize, or delete the history database, to include them again.",
		}.Display(out, display.ColorEnabled(out))
	}
	if len(inv.Skipped) > 0 {
		var names []string
		for _, e := range inv.Skipped {
			names = append(names, e.Error())
		}
		display.Warning{
			Title:   "Some files cannot be read",
			Message: "They will not be sent to the model.",
			Files:   names,
		}.Display(out, display.ColorEnabled(out))
	}
	return nil
}

type sampleJSON struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Kind      string `json:"kind"`
	MIME      string `json:"mime,omitempty"`
	Truncated bool   `json:"truncated"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

func writeInventoryJSON(out io.Writer, inv *organizer.Inventory) error {
	files := make([]sampleJSON, 0, len(inv.Samples))
	for _, fs := range inv.Samples {
		item := sampleJSON{
			Path:      fs.Entry.RelPath,
			Size:      fs.Entry.Size,
			Kind:      fs.Snippet.Kind.String(),
			MIME:      fs.Snippet.MIME,
			Truncated: fs.Snippet.Truncated,
			Text:      fs.Snippet.Text,
		}
		if fs.Snippet.Err != nil {
			item.Error = fs.Snippet.Err.Error()
		}
		files = append(files, item)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Root     string       `json:"root"`
		Files    []sampleJSON `json:"files"`
		Folders  []string     `json:"folders"`
		Excluded []string     `json:"excluded,omitempty"`
	}{inv.Root, files, inv.Folders, inv.Excluded})
}

// scanOnly satisfies the organizer's planner requirement for commands that
// never plan.
type scanOnly struct{}

func (scanOnly) Name() string { return "scan" }

func (scanOnly) Plan(context.Context, planner.PlanRequest) (*models.OrganizationPlan, error) {
	return nil, planner.NewPlannerError("scan", "scan does not plan", nil)
}
