// Package organizer ties scanning, sampling, planning and execution into a
// single organize run over one root directory.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/deeporganizer/internal/executor"
	"github.com/harrison/deeporganizer/internal/fileutil"
	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/models"
	"github.com/harrison/deeporganizer/internal/planner"
	"github.com/harrison/deeporganizer/internal/sampler"
)

// Logger receives run progress. It extends executor.Logger with leveled
// messages.
type Logger interface {
	executor.Logger
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// HistoryStore records finished runs and reports the folders earlier runs
// created. history.Store implements it.
type HistoryStore interface {
	RecordRun(ctx context.Context, summary *models.OrganizationSummary, notes string) error
	CreatedFolders(ctx context.Context, root string) ([]string, error)
}

// Options configures an Organizer.
type Options struct {
	Root            string             // Directory to organize (required)
	DryRun          bool               // Report without touching the filesystem
	MaxFileReadSize int                // Bytes sampled per file (0 = sampler.DefaultMaxBytes)
	Protected       guard.ProtectedSet // Added to guard.DefaultProtectedSet
	Recursive       bool               // Scan subdirectories
	ExcludeDirs     []string           // Additional folder names to skip while scanning
	Planner         planner.Planner    // Plan source (required)
	Logger          Logger             // Optional
	History         HistoryStore       // Optional

	// PlanHook, when set, receives the plan before it is executed. An error
	// aborts the run before anything is mutated.
	PlanHook func(*models.OrganizationPlan) error
}

// Organizer runs organize passes over one root. It holds no state between
// calls.
type Organizer struct {
	opts    Options
	guard   *guard.Guard
	logger  Logger
	maxRead int
}

// Inventory is the read-only result of scanning and sampling a root.
type Inventory struct {
	Root     string
	Entries  []models.DirectoryEntry // Every scanned entry, sorted by path
	Samples  []models.FileSample     // Sampled files, in scan order
	Folders  []string                // Folders available as destinations
	Skipped  []error                 // Files the guard refused to read
	Errors   []error                 // Non-fatal scan errors
	Excluded []string                // Folders skipped as output of earlier runs
}

// New validates opts and creates an Organizer. All errors are
// *ConfigurationError.
func New(opts Options) (*Organizer, error) {
	if opts.Root == "" {
		return nil, configError("root", nil, "root directory is required")
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, configError("root", err, "cannot access %s", opts.Root)
	}
	if !info.IsDir() {
		return nil, configError("root", nil, "%s is not a directory", opts.Root)
	}
	if opts.MaxFileReadSize < 0 {
		return nil, configError("max_file_read_size", nil, "must be >= 0, got %d", opts.MaxFileReadSize)
	}
	if opts.MaxFileReadSize > sampler.MaxBytesLimit {
		return nil, configError("max_file_read_size", nil, "must be <= %d, got %d", sampler.MaxBytesLimit, opts.MaxFileReadSize)
	}
	if opts.Planner == nil {
		return nil, configError("planner", nil, "a planner is required")
	}

	protected := guard.DefaultProtectedSet().Merge(opts.Protected)
	if pat, ok := protected.ValidatePatterns(); !ok {
		return nil, configError("protected", nil, "malformed pattern %q", pat)
	}

	g, err := guard.New(opts.Root, protected)
	if err != nil {
		return nil, configError("root", err, "cannot resolve %s", opts.Root)
	}

	maxRead := opts.MaxFileReadSize
	if maxRead == 0 {
		maxRead = sampler.DefaultMaxBytes
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Organizer{opts: opts, guard: g, logger: logger, maxRead: maxRead}, nil
}

// Root returns the canonical root directory.
func (o *Organizer) Root() string {
	return o.guard.Root()
}

// Preview scans and samples the root without planning or mutating anything.
func (o *Organizer) Preview(ctx context.Context) (*Inventory, error) {
	root := o.guard.Root()
	inv := &Inventory{Root: root}

	exclude := append([]string(nil), o.opts.ExcludeDirs...)
	if o.opts.History != nil {
		prior, err := o.opts.History.CreatedFolders(ctx, root)
		if err != nil {
			o.logger.LogWarn(fmt.Sprintf("Could not read run history: %v", err))
		}
		inv.Excluded = prior
		exclude = append(exclude, prior...)
	}

	o.logger.LogDebug(fmt.Sprintf("Scanning %s (recursive: %t)", root, o.opts.Recursive))
	scan, err := fileutil.ScanDirectory(root, fileutil.ScanOptions{
		Protected:   o.guard.Protected(),
		Recursive:   o.opts.Recursive,
		ExcludeDirs: exclude,
	})
	if err != nil {
		return nil, configError("root", err, "cannot scan %s", root)
	}
	inv.Entries = scan.Entries
	inv.Errors = scan.Errors
	for _, scanErr := range scan.Errors {
		o.logger.LogWarn(fmt.Sprintf("Scan: %v", scanErr))
	}

	inv.Folders = scan.Folders()
	for _, name := range inv.Excluded {
		if fi, err := os.Stat(filepath.Join(root, name)); err == nil && fi.IsDir() {
			inv.Folders = append(inv.Folders, name)
		}
	}

	for _, entry := range scan.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := o.guard.Validate(entry.AbsPath, guard.IntentRead); err != nil {
			o.logger.LogDebug(fmt.Sprintf("Not sampling %s: %v", entry.RelPath, err))
			inv.Skipped = append(inv.Skipped, err)
			continue
		}
		snippet := sampler.Sample(entry.AbsPath, o.maxRead)
		snippet.Path = entry.RelPath
		inv.Samples = append(inv.Samples, models.FileSample{Entry: entry, Snippet: snippet})
	}
	return inv, nil
}

// Organize runs one complete pass: scan, sample, plan, execute, summarize.
//
// A planner failure returns a *planner.PlannerError and no summary; nothing
// has been mutated at that point. When the context is canceled during
// execution the partial summary is returned together with an error wrapping
// executor.ErrCanceled.
func (o *Organizer) Organize(ctx context.Context) (*models.OrganizationSummary, error) {
	started := time.Now()

	inv, err := o.Preview(ctx)
	if err != nil {
		return nil, err
	}

	plan := &models.OrganizationPlan{Model: o.opts.Planner.Name()}
	var results []models.ExecutionResult
	var execErr error

	if len(inv.Samples) == 0 {
		o.logger.LogInfo("No files to organize")
	} else {
		o.logger.LogInfo(fmt.Sprintf("Analyzing %d items with %s", len(inv.Samples), o.opts.Planner.Name()))
		plan, err = o.opts.Planner.Plan(ctx, planner.PlanRequest{
			Root:            inv.Root,
			Model:           o.opts.Planner.Name(),
			Files:           inv.Samples,
			ExistingFolders: inv.Folders,
		})
		if err != nil {
			if !errors.Is(err, planner.ErrPlanner) {
				err = planner.NewPlannerError(o.opts.Planner.Name(), "planning failed", err)
			}
			return nil, err
		}
		if plan == nil {
			plan = &models.OrganizationPlan{}
		}
		if plan.Model == "" {
			plan.Model = o.opts.Planner.Name()
		}
		o.logger.LogInfo(fmt.Sprintf("Plan has %d action(s): %d folder(s), %d move(s)",
			len(plan.Actions), plan.Count(models.ActionCreateFolder), plan.Count(models.ActionMoveFile)))

		if o.opts.PlanHook != nil {
			if err := o.opts.PlanHook(plan); err != nil {
				return nil, fmt.Errorf("plan hook: %w", err)
			}
		}

		exec := executor.NewPlanExecutor(o.guard, o.logger)
		results, execErr = exec.Execute(ctx, plan, o.opts.DryRun)
	}

	summary := models.Summarize(results, len(plan.Actions))
	summary.RunID = uuid.NewString()
	summary.Root = inv.Root
	summary.Model = plan.Model
	summary.DryRun = o.opts.DryRun
	summary.FilesScanned = len(inv.Samples)
	summary.Canceled = errors.Is(execErr, executor.ErrCanceled)
	summary.StartedAt = started
	summary.Duration = time.Since(started)

	o.logger.LogSummary(summary)

	if o.opts.History != nil {
		// A fresh context so a canceled run is still recorded.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := o.opts.History.RecordRun(recordCtx, summary, plan.Notes); err != nil {
			o.logger.LogWarn(fmt.Sprintf("Could not record run history: %v", err))
		}
		cancel()
	}

	return summary, execErr
}

type noopLogger struct{}

func (noopLogger) LogRunStart(string, int, bool) {}
func (noopLogger) LogActionResult(int, int, models.ExecutionResult) {}
func (noopLogger) LogSummary(*models.OrganizationSummary) {}
func (noopLogger) LogDebug(string) {}
func (noopLogger) LogInfo(string) {}
func (noopLogger) LogWarn(string) {}
