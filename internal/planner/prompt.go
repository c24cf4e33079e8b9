package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt constrains the model to a bare JSON plan.
const SystemPrompt = "You organize files into folders. Your ONLY output must be valid JSON matching the provided schema. No markdown, no code fences, no prose, no explanations. Output raw JSON only."

// planSchema is the JSON schema of the expected reply.
const planSchema = `{
  "type": "object",
  "properties": {
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["create_folder", "move_file"]},
          "name": {"type": "string"},
          "source": {"type": "string"},
          "destination_folder": {"type": "string"}
        },
        "required": ["type"]
      }
    },
    "notes": {"type": "string"}
  },
  "required": ["actions"]
}`

// PlanSchema returns the JSON schema a planner reply must satisfy.
func PlanSchema() string {
	return planSchema
}

// promptFile is the per-file record embedded in the prompt.
type promptFile struct {
	Path      string `json:"path"`
	Size      int64  `json:"size_bytes"`
	Kind      string `json:"content_kind"`
	MIME      string `json:"mime,omitempty"`
	Truncated bool   `json:"truncated"`
	Binary    bool   `json:"binary"`
	Preview   string `json:"preview,omitempty"`
}

const promptInstructions = `Organize the files below into descriptively named folders based on what each file contains.

Rules:
- Reply with {"actions": [...]} only.
- Use {"type": "create_folder", "name": "<Folder>"} for every folder you use. Folder names are a single path segment: no "/" or "\".
- Use {"type": "move_file", "source": "<path exactly as listed>", "destination_folder": "<Folder>"} to move a file.
- Prefer reusing an existing folder when it fits.
- Only move files that are listed. Never move folders.
- Leave a file where it is if you cannot tell what it is.
- Binary files have no preview; use their name, size and media type.
`

// BuildPrompt renders a request into the user prompt sent to the model.
func BuildPrompt(req PlanRequest) (string, error) {
	files := make([]promptFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, promptFile{
			Path:      f.Entry.RelPath,
			Size:      f.Entry.Size,
			Kind:      f.Snippet.Kind.String(),
			MIME:      f.Snippet.MIME,
			Truncated: f.Snippet.Truncated,
			Binary:    f.Snippet.Binary(),
			Preview:   f.Snippet.Text,
		})
	}

	inventory, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal inventory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(promptInstructions)
	sb.WriteString("\nExisting folders: ")
	if len(req.ExistingFolders) == 0 {
		sb.WriteString("(none)")
	} else {
		sb.WriteString(strings.Join(req.ExistingFolders, ", "))
	}
	sb.WriteString("\n\nFiles:\n")
	sb.Write(inventory)
	sb.WriteString("\n\nJSON schema of the reply:\n")
	sb.WriteString(planSchema)
	sb.WriteString("\n")
	return sb.String(), nil
}
