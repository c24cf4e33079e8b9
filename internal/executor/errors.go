package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/deeporganizer/internal/models"
)

// ErrExecutionFailure matches every *ActionError via errors.Is.
var ErrExecutionFailure = errors.New("execution failure")

// ErrCanceled is returned by Execute when the context ends before every
// action was processed.
var ErrCanceled = errors.New("execution canceled")

// Operation names the filesystem step that failed.
type Operation int

const (
	// OpStat represents errors while inspecting a source or destination.
	OpStat Operation = iota
	// OpMkdir represents errors while creating a folder.
	OpMkdir
	// OpMove represents errors while moving a file.
	OpMove
)

// String returns the string representation of Operation.
func (o Operation) String() string {
	switch o {
	case OpStat:
		return "stat"
	case OpMkdir:
		return "mkdir"
	case OpMove:
		return "move"
	default:
		return "unknown"
	}
}

// ActionError represents an I/O failure while applying one planned action.
// It is recorded on the action's result and never aborts the run.
type ActionError struct {
	Action    models.PlannedAction // Action being applied
	Op        Operation            // Step that failed
	Path      string               // Path the step operated on
	Message   string               // Human-readable error message
	Err       error                // Underlying error (optional)
	Timestamp time.Time            // When the error occurred
}

// NewActionError creates a new ActionError with the current timestamp.
func NewActionError(action models.PlannedAction, op Operation, path, msg string, err error) *ActionError {
	return &ActionError{
		Action:    action,
		Op:        op,
		Path:      path,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for ActionError.
func (e *ActionError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExecutionFailure.
func (e *ActionError) Is(target error) bool {
	return target == ErrExecutionFailure
}

// PlanRejection is a structural refusal raised by the executor itself,
// outside of path validation: unknown action kinds, missing fields, or a
// destination folder the plan never creates.
type PlanRejection struct {
	Action models.PlannedAction
	Reason string
}

// Error implements the error interface for PlanRejection.
func (e *PlanRejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
}

func rejectAction(action models.PlannedAction, format string, args ...interface{}) *PlanRejection {
	return &PlanRejection{Action: action, Reason: fmt.Sprintf(format, args...)}
}
