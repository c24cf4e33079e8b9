package models

import "time"

// Outcome is the terminal state of one executed action.
type Outcome string

// Action outcomes.
const (
	OutcomeApplied       Outcome = "applied"         // Change made, or already in the requested state
	OutcomeSkippedDryRun Outcome = "skipped_dry_run" // Dry run; nothing touched
	OutcomeRejected      Outcome = "rejected"        // Refused by validation
	OutcomeFailed        Outcome = "failed"          // I/O failure while applying
)

// ExecutionResult is the per-action record produced by the executor.
type ExecutionResult struct {
	Action        PlannedAction // The action as planned
	Outcome       Outcome       // Terminal state
	Reason        string        // Rejection or failure reason
	Message       string        // Human-readable description
	Destination   string        // Final destination path for moves, relative to root
	FolderCreated bool          // A folder was (or in dry run, would be) created by this action
	Preview       Outcome       // Dry run only: the outcome a real run would have had
	Err           error         // Underlying rejection or failure, if any
}

// SummaryRow is one flattened line of an OrganizationSummary.
type SummaryRow struct {
	File    string  `json:"file"`
	Action  string  `json:"action"`
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
}

// OrganizationSummary aggregates a complete organize run.
type OrganizationSummary struct {
	RunID          string            `json:"run_id"`
	Root           string            `json:"root"`
	Model          string            `json:"model"`
	DryRun         bool              `json:"dry_run"`
	FilesScanned   int               `json:"files_scanned"`
	FoldersCreated int               `json:"folders_created"`
	FilesMoved     int               `json:"files_moved"`
	Skipped        int               `json:"skipped"`
	Rejected       int               `json:"rejected"`
	Failed         int               `json:"failed"`
	WouldReject    int               `json:"would_reject,omitempty"`
	WouldFail      int               `json:"would_fail,omitempty"`
	NotAttempted   int               `json:"not_attempted"`
	Canceled       bool              `json:"canceled"`
	StartedAt      time.Time         `json:"started_at"`
	Duration       time.Duration     `json:"duration"`
	Results        []ExecutionResult `json:"-"`
	Rows           []SummaryRow      `json:"rows"`
}

// Summarize folds a result sequence into counts and display rows.
// The summary's identity fields (RunID, Root, Model, DryRun, FilesScanned,
// timing) are left to the caller.
func Summarize(results []ExecutionResult, planned int) *OrganizationSummary {
	s := &OrganizationSummary{
		Results: results,
		Rows:    make([]SummaryRow, 0, len(results)),
	}

	for _, r := range results {
		if r.FolderCreated {
			s.FoldersCreated++
		}
		switch r.Outcome {
		case OutcomeApplied:
			if r.Action.Kind == ActionMoveFile {
				s.FilesMoved++
			}
		case OutcomeSkippedDryRun:
			s.Skipped++
			switch r.Preview {
			case OutcomeRejected:
				s.WouldReject++
			case OutcomeFailed:
				s.WouldFail++
			}
		case OutcomeRejected:
			s.Rejected++
		case OutcomeFailed:
			s.Failed++
		}
		s.Rows = append(s.Rows, SummaryRow{
			File:    r.Action.Subject(),
			Action:  string(r.Action.Kind),
			Outcome: r.Outcome,
			Message: r.Message,
		})
	}

	if planned > len(results) {
		s.NotAttempted = planned - len(results)
	}
	return s
}

// HasFailures reports whether any action failed with an I/O error.
func (s *OrganizationSummary) HasFailures() bool {
	return s != nil && s.Failed > 0
}

// CreatedFolders lists folders that were created on disk, in order.
func (s *OrganizationSummary) CreatedFolders() []string {
	if s == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, r := range s.Results {
		if !r.FolderCreated || r.Outcome == OutcomeSkippedDryRun {
			continue
		}
		name := r.Action.Name
		if r.Action.Kind == ActionMoveFile {
			name = r.Action.DestinationFolder
		}
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
