// Package executor applies organization plans to the filesystem.
//
// Every action is validated by a guard.Guard immediately before it touches
// the disk, and each action yields exactly one models.ExecutionResult in plan
// order. Rejections and I/O failures are recorded on the result; they never
// stop the remaining actions.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/models"
)

// maxSuffix bounds the " (n)" counter used to avoid overwriting a file.
const maxSuffix = 10000

// moveAttempts bounds retries when a destination appears between the
// collision check and the move.
const moveAttempts = 3

// Logger receives execution progress. Implementations must be safe to call
// from the executing goroutine; a nil Logger disables logging.
type Logger interface {
	LogRunStart(root string, planned int, dryRun bool)
	LogActionResult(index, total int, result models.ExecutionResult)
	LogSummary(summary *models.OrganizationSummary)
}

// PlanExecutor applies plans under a single root.
type PlanExecutor struct {
	guard  *guard.Guard
	logger Logger
}

// NewPlanExecutor creates a PlanExecutor bound to g.
// The logger parameter is optional and can be nil.
func NewPlanExecutor(g *guard.Guard, logger Logger) *PlanExecutor {
	if g == nil {
		panic("guard cannot be nil")
	}
	return &PlanExecutor{guard: g, logger: logger}
}

type folderState int

const (
	folderUnseen folderState = iota
	folderReady
	folderRejected
	folderFailed
)

// runState is the bookkeeping of one Execute call. Nothing survives
// between calls.
type runState struct {
	plan    *models.OrganizationPlan
	dryRun  bool
	folders map[string]folderState // Outcome of folders handled so far
	lazy    map[string]bool        // Folders created ahead of their CreateFolder action
	virtual map[string]bool        // Dry run: folders that would exist
	claimed map[string]bool        // Dry run: destinations already taken
	moved   map[string]bool        // Dry run: sources already moved away
}

// Execute applies plan and returns one result per processed action, in plan
// order. With dryRun set the filesystem is only inspected and every result
// has outcome SkippedDryRun, with Preview holding what a real run would do.
//
// The context is checked before each action. When it is done, processing
// stops, the results gathered so far are returned, and the error wraps
// ErrCanceled. Completed actions are not rolled back.
func (e *PlanExecutor) Execute(ctx context.Context, plan *models.OrganizationPlan, dryRun bool) ([]models.ExecutionResult, error) {
	if plan == nil {
		plan = &models.OrganizationPlan{}
	}
	total := len(plan.Actions)
	if e.logger != nil {
		e.logger.LogRunStart(e.guard.Root(), total, dryRun)
	}

	st := &runState{
		plan:    plan,
		dryRun:  dryRun,
		folders: make(map[string]folderState),
		lazy:    make(map[string]bool),
		virtual: make(map[string]bool),
		claimed: make(map[string]bool),
		moved:   make(map[string]bool),
	}

	results := make([]models.ExecutionResult, 0, total)
	for i, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w after %d of %d actions: %v", ErrCanceled, i, total, err)
		}

		var r models.ExecutionResult
		switch action.Kind {
		case models.ActionCreateFolder:
			r = e.createFolder(st, action)
		case models.ActionMoveFile:
			r = e.moveFile(st, i, action)
		default:
			reason := action.Invalid
			if reason == "" {
				reason = fmt.Sprintf("unknown action type %q", action.Kind)
			}
			r = rejected(action, rejectAction(action, "%s", reason))
		}
		r = st.finish(r)

		results = append(results, r)
		if e.logger != nil {
			e.logger.LogActionResult(i, total, r)
		}
	}
	return results, nil
}

func (e *PlanExecutor) createFolder(st *runState, a models.PlannedAction) models.ExecutionResult {
	name := a.Name
	path, err := e.guard.Validate(name, guard.IntentCreateFolder)
	if err != nil {
		st.folders[name] = folderRejected
		return rejected(a, err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		st.folders[name] = folderReady
		if st.lazy[name] {
			return applied(a, fmt.Sprintf("folder %s already created for an earlier move", name))
		}
		return applied(a, fmt.Sprintf("folder %s already exists", name))
	case err == nil:
		st.folders[name] = folderRejected
		return rejected(a, rejectAction(a, "%s exists and is not a directory", name))
	case !errors.Is(err, fs.ErrNotExist):
		st.folders[name] = folderFailed
		return failed(a, NewActionError(a, OpStat, name, "cannot inspect folder", err))
	}

	if st.dryRun {
		st.folders[name] = folderReady
		if st.virtual[name] {
			return applied(a, fmt.Sprintf("folder %s already planned earlier in this run", name))
		}
		st.virtual[name] = true
		r := applied(a, "would create folder "+name)
		r.FolderCreated = true
		return r
	}

	if err := os.Mkdir(path, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
				st.folders[name] = folderReady
				return applied(a, fmt.Sprintf("folder %s already exists", name))
			}
		}
		st.folders[name] = folderFailed
		return failed(a, NewActionError(a, OpMkdir, name, "cannot create folder", err))
	}

	st.folders[name] = folderReady
	r := applied(a, "created folder "+name)
	r.FolderCreated = true
	return r
}

func (e *PlanExecutor) moveFile(st *runState, index int, a models.PlannedAction) models.ExecutionResult {
	if a.Source == "" || a.DestinationFolder == "" {
		return rejected(a, rejectAction(a, "move requires both source and destination_folder"))
	}

	src, err := e.guard.Validate(a.Source, guard.IntentMoveSource)
	if err != nil {
		return rejected(a, err)
	}
	if st.dryRun && st.moved[src] {
		return failed(a, NewActionError(a, OpStat, a.Source, "source already moved earlier in this run", fs.ErrNotExist))
	}

	listed := a.Source
	if !filepath.IsAbs(listed) {
		listed = filepath.Join(e.guard.Root(), listed)
	}
	info, err := os.Lstat(listed)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return failed(a, NewActionError(a, OpStat, a.Source, "source no longer exists", err))
	case err != nil:
		return failed(a, NewActionError(a, OpStat, a.Source, "cannot inspect source", err))
	case info.Mode()&fs.ModeSymlink != 0:
		return rejected(a, rejectAction(a, "source is a symbolic link"))
	case info.IsDir():
		return rejected(a, rejectAction(a, "source is a directory; only files are moved"))
	case !info.Mode().IsRegular():
		return rejected(a, rejectAction(a, "source is not a regular file"))
	}

	folder := a.DestinationFolder
	folderPath, err := e.guard.Validate(folder, guard.IntentCreateFolder)
	if err != nil {
		return rejected(a, err)
	}

	created, err := e.ensureFolder(st, index, a, folderPath)
	if err != nil {
		r := outcomeFor(a, err)
		r.FolderCreated = created
		return r
	}

	if filepath.Dir(src) == folderPath {
		r := applied(a, fmt.Sprintf("%s is already in %s", a.Source, folder))
		r.Destination = folder + "/" + filepath.Base(src)
		return r
	}

	base := filepath.Base(listed)
	var r models.ExecutionResult
	for attempt := 0; attempt < moveAttempts; attempt++ {
		dst, rel, renamed, err := e.reserveDestination(st, a, base)
		if err != nil {
			r = outcomeFor(a, err)
			break
		}

		if st.dryRun {
			st.claimed[dst] = true
			st.moved[src] = true
			r = applied(a, describeMove("would move", a.Source, rel, renamed))
			r.Destination = rel
			break
		}

		err = moveNoClobber(src, dst)
		if errors.Is(err, fs.ErrExist) {
			// Destination appeared after the check; pick the next free name.
			continue
		}
		if err != nil {
			r = failed(a, NewActionError(a, OpMove, a.Source, "cannot move file", err))
			break
		}
		r = applied(a, describeMove("moved", a.Source, rel, renamed))
		r.Destination = rel
		break
	}
	if r.Outcome == "" {
		r = failed(a, NewActionError(a, OpMove, a.Source, "destination kept appearing while moving", fs.ErrExist))
	}
	r.FolderCreated = created
	return r
}

// ensureFolder makes sure the destination folder of a move exists, creating
// it lazily when its CreateFolder action appears later in the plan.
// It reports whether this call created the folder.
func (e *PlanExecutor) ensureFolder(st *runState, index int, a models.PlannedAction, path string) (bool, error) {
	name := a.DestinationFolder
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false, nil
		}
		return false, rejectAction(a, "destination %s exists and is not a directory", name)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, NewActionError(a, OpStat, name, "cannot inspect destination folder", err)
	}
	if st.dryRun && st.virtual[name] {
		return false, nil
	}

	switch st.folders[name] {
	case folderReady:
		return false, NewActionError(a, OpStat, name, "destination folder vanished during the run", err)
	case folderRejected:
		return false, rejectAction(a, "destination folder %s was rejected earlier in this run", name)
	case folderFailed:
		return false, NewActionError(a, OpMkdir, name, "destination folder could not be created earlier in this run", nil)
	}

	if st.plan.CreatesFolder(name, index+1) < 0 {
		return false, rejectAction(a, "destination folder %s is not planned", name)
	}

	if st.dryRun {
		st.virtual[name] = true
		st.lazy[name] = true
		return true, nil
	}

	if err := os.Mkdir(path, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Something appeared under the name; it must be a real directory.
			if fi, statErr := os.Lstat(path); statErr == nil && fi.IsDir() {
				st.folders[name] = folderReady
				return false, nil
			}
			return false, rejectAction(a, "destination %s exists and is not a directory", name)
		}
		st.folders[name] = folderFailed
		return false, NewActionError(a, OpMkdir, name, "cannot create destination folder", err)
	}
	st.lazy[name] = true
	st.folders[name] = folderReady
	return true, nil
}

// reserveDestination finds the first name in the destination folder that is
// neither on disk nor claimed earlier in a dry run, appending " (n)" before
// the extension when needed.
func (e *PlanExecutor) reserveDestination(st *runState, a models.PlannedAction, base string) (string, string, bool, error) {
	for n := 0; n < maxSuffix; n++ {
		rel := a.DestinationFolder + "/" + suffixed(base, n)
		dst, err := e.guard.Validate(rel, guard.IntentMoveDestination)
		if err != nil {
			return "", "", false, err
		}
		if st.claimed[dst] {
			continue
		}
		_, err = os.Lstat(dst)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", false, NewActionError(a, OpStat, rel, "cannot inspect destination", err)
		}
		return dst, rel, n > 0, nil
	}
	return "", "", false, NewActionError(a, OpStat, a.DestinationFolder, fmt.Sprintf("no free name for %s after %d attempts", base, maxSuffix), nil)
}

// suffixed returns base with " (n)" inserted before its extension.
// Zero returns base unchanged.
func suffixed(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// moveNoClobber moves src to dst and fails with fs.ErrExist rather than
// replace an existing dst. A hard link makes the existence check and the
// move a single step; filesystems without hard links fall back to a checked
// rename.
func moveNoClobber(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		if err := os.Remove(src); err != nil {
			os.Remove(dst)
			return err
		}
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}

	if _, statErr := os.Lstat(dst); statErr == nil {
		return &fs.PathError{Op: "rename", Path: dst, Err: fs.ErrExist}
	}
	return os.Rename(src, dst)
}

func describeMove(verb, source, rel string, renamed bool) string {
	if renamed {
		return fmt.Sprintf("%s %s to %s (renamed to avoid overwriting)", verb, source, rel)
	}
	return fmt.Sprintf("%s %s to %s", verb, source, rel)
}

// finish converts results of a dry run into SkippedDryRun, keeping the
// would-be outcome in Preview.
func (st *runState) finish(r models.ExecutionResult) models.ExecutionResult {
	if !st.dryRun {
		return r
	}
	r.Preview = r.Outcome
	switch r.Outcome {
	case models.OutcomeRejected:
		r.Message = "would reject: " + r.Reason
	case models.OutcomeFailed:
		r.Message = "would fail: " + r.Reason
	}
	r.Outcome = models.OutcomeSkippedDryRun
	return r
}

func applied(a models.PlannedAction, msg string) models.ExecutionResult {
	return models.ExecutionResult{Action: a, Outcome: models.OutcomeApplied, Message: msg}
}

func rejected(a models.PlannedAction, err error) models.ExecutionResult {
	reason := reasonOf(err)
	return models.ExecutionResult{
		Action:  a,
		Outcome: models.OutcomeRejected,
		Reason:  reason,
		Message: "rejected: " + reason,
		Err:     err,
	}
}

func failed(a models.PlannedAction, err error) models.ExecutionResult {
	reason := reasonOf(err)
	return models.ExecutionResult{
		Action:  a,
		Outcome: models.OutcomeFailed,
		Reason:  reason,
		Message: "failed: " + reason,
		Err:     err,
	}
}

// outcomeFor maps an error from a helper onto Rejected or Failed.
func outcomeFor(a models.PlannedAction, err error) models.ExecutionResult {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return failed(a, err)
	}
	return rejected(a, err)
}

func reasonOf(err error) string {
	var rej *guard.Rejection
	if errors.As(err, &rej) {
		return rej.Reason
	}
	var planRej *PlanRejection
	if errors.As(err, &planRej) {
		return planRej.Reason
	}
	return err.Error()
}
