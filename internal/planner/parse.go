package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/deeporganizer/internal/models"
)

// rawPlan is the loosely typed shape of a planner reply.
type rawPlan struct {
	Actions *[]rawAction `json:"actions" yaml:"actions"`
	Notes   string       `json:"notes" yaml:"notes"`
}

// rawAction accepts the field spellings models commonly produce.
type rawAction struct {
	Type              string `json:"type" yaml:"type"`
	Action            string `json:"action" yaml:"action"`
	Name              string `json:"name" yaml:"name"`
	Folder            string `json:"folder" yaml:"folder"`
	Source            string `json:"source" yaml:"source"`
	File              string `json:"file" yaml:"file"`
	DestinationFolder string `json:"destination_folder" yaml:"destination_folder"`
	Destination       string `json:"destination" yaml:"destination"`
}

// ParseResponse extracts an OrganizationPlan from a planner reply.
//
// The reply may be bare JSON or YAML, a Markdown document containing a
// fenced code block, or prose with a JSON object embedded in it. A reply
// that yields no plan at all is an error; individual malformed actions are
// kept as models.ActionUnknown so the executor rejects only those.
func ParseResponse(reply string) (*models.OrganizationPlan, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil, errors.New("empty response")
	}

	candidates := []string{trimmed}
	candidates = append(candidates, fencedBlocks([]byte(trimmed))...)
	if obj := ExtractJSON(trimmed); obj != "" && obj != trimmed {
		candidates = append(candidates, obj)
	}

	var lastErr error
	for _, c := range candidates {
		plan, err := decodePlan(c)
		if err == nil {
			return plan, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no plan found in response (%v): %s", lastErr, truncate(trimmed, 200))
}

// decodePlan decodes one candidate document, trying JSON before YAML.
func decodePlan(doc string) (*models.OrganizationPlan, error) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil, errors.New("empty document")
	}

	var raw rawPlan
	var list []rawAction
	switch {
	case json.Unmarshal([]byte(doc), &raw) == nil && raw.Actions != nil:
	case json.Unmarshal([]byte(doc), &list) == nil:
		raw.Actions = &list
	case yaml.Unmarshal([]byte(doc), &raw) == nil && raw.Actions != nil:
	case yaml.Unmarshal([]byte(doc), &list) == nil && list != nil:
		raw.Actions = &list
	default:
		return nil, errors.New("document has no actions list")
	}

	plan := &models.OrganizationPlan{
		Notes:   strings.TrimSpace(raw.Notes),
		Actions: make([]models.PlannedAction, 0, len(*raw.Actions)),
	}
	for i, ra := range *raw.Actions {
		plan.Actions = append(plan.Actions, ra.toAction(i))
	}
	return plan, nil
}

// toAction maps a raw action onto a PlannedAction, marking structural
// problems instead of failing the whole plan.
func (ra rawAction) toAction(index int) models.PlannedAction {
	kind := ra.Type
	if kind == "" {
		kind = ra.Action
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	kind = strings.NewReplacer("-", "_", " ", "_").Replace(kind)

	switch kind {
	case "create_folder", "createfolder", "mkdir", "create":
		name := firstNonEmpty(ra.Name, ra.Folder, ra.DestinationFolder)
		if name == "" {
			return models.InvalidAction(fmt.Sprintf("action %d: create_folder without a name", index))
		}
		return models.CreateFolder(name)
	case "move_file", "movefile", "move":
		source := firstNonEmpty(ra.Source, ra.File)
		folder := firstNonEmpty(ra.DestinationFolder, ra.Destination, ra.Folder)
		if source == "" || folder == "" {
			return models.InvalidAction(fmt.Sprintf("action %d: move_file needs source and destination_folder", index))
		}
		return models.MoveFile(source, folder)
	case "":
		return models.InvalidAction(fmt.Sprintf("action %d: missing type", index))
	default:
		return models.InvalidAction(fmt.Sprintf("action %d: unknown action type %q", index, kind))
	}
}

// fencedBlocks returns the contents of every fenced code block in a
// Markdown document, in document order.
func fencedBlocks(src []byte) []string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		blocks = append(blocks, sb.String())
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// ExtractJSON returns the span from the first '{' to the last '}' in s, or
// an empty string when there is none.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
