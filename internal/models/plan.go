package models

import "fmt"

// ActionKind identifies the variant of a PlannedAction.
type ActionKind string

// Action kinds understood by the executor.
const (
	ActionCreateFolder ActionKind = "create_folder"
	ActionMoveFile     ActionKind = "move_file"
	// ActionUnknown marks planner output that could not be mapped onto a
	// known action. It is recorded and rejected, never executed.
	ActionUnknown ActionKind = "unknown"
)

// PlannedAction is a single step of an OrganizationPlan.
// CreateFolder uses Name; MoveFile uses Source and DestinationFolder.
type PlannedAction struct {
	Kind              ActionKind `yaml:"type" json:"type"`
	Name              string     `yaml:"name,omitempty" json:"name,omitempty"`
	Source            string     `yaml:"source,omitempty" json:"source,omitempty"`
	DestinationFolder string     `yaml:"destination_folder,omitempty" json:"destination_folder,omitempty"`
	Invalid           string     `yaml:"-" json:"-"` // Structural problem, set for ActionUnknown
}

// CreateFolder builds a create-folder action.
func CreateFolder(name string) PlannedAction {
	return PlannedAction{Kind: ActionCreateFolder, Name: name}
}

// MoveFile builds a move-file action.
func MoveFile(source, folder string) PlannedAction {
	return PlannedAction{Kind: ActionMoveFile, Source: source, DestinationFolder: folder}
}

// InvalidAction records planner output the executor must reject.
func InvalidAction(reason string) PlannedAction {
	return PlannedAction{Kind: ActionUnknown, Invalid: reason}
}

// Subject returns the path or name the action operates on, for display.
func (a PlannedAction) Subject() string {
	switch a.Kind {
	case ActionCreateFolder:
		return a.Name
	case ActionMoveFile:
		return a.Source
	default:
		return ""
	}
}

// String renders the action in a compact human-readable form.
func (a PlannedAction) String() string {
	switch a.Kind {
	case ActionCreateFolder:
		return fmt.Sprintf("create folder %q", a.Name)
	case ActionMoveFile:
		return fmt.Sprintf("move %q -> %q", a.Source, a.DestinationFolder)
	default:
		if a.Invalid != "" {
			return "invalid action: " + a.Invalid
		}
		return "invalid action"
	}
}

// OrganizationPlan is the ordered batch of actions returned by a planner.
// It may be empty and may contain duplicate folder names.
type OrganizationPlan struct {
	Model   string          `yaml:"model,omitempty" json:"model,omitempty"`
	Notes   string          `yaml:"notes,omitempty" json:"notes,omitempty"`
	Actions []PlannedAction `yaml:"actions" json:"actions"`
}

// CreatesFolder reports the index of the first CreateFolder action for name
// at or after position from, or -1.
func (p *OrganizationPlan) CreatesFolder(name string, from int) int {
	if p == nil {
		return -1
	}
	for i := from; i < len(p.Actions); i++ {
		a := p.Actions[i]
		if a.Kind == ActionCreateFolder && a.Name == name {
			return i
		}
	}
	return -1
}

// Count returns the number of actions of the given kind.
func (p *OrganizationPlan) Count(kind ActionKind) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
