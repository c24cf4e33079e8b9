package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/models"
)

var wantStandard = []models.PlannedAction{
	models.CreateFolder("Documents"),
	models.MoveFile("report.pdf", "Documents"),
}

func TestParseResponse_Formats(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "bare json",
			reply: `{"actions":[{"type":"create_folder","name":"Documents"},{"type":"move_file","source":"report.pdf","destination_folder":"Documents"}]}`,
		},
		{
			name:  "bare array",
			reply: `[{"type":"create_folder","name":"Documents"},{"type":"move_file","source":"report.pdf","destination_folder":"Documents"}]`,
		},
		{
			name: "yaml",
			reply: `actions:
  - type: create_folder
    name: Documents
  - type: move_file
    source: report.pdf
    destination_folder: Documents
`,
		},
		{
			name: "markdown fence",
			reply: "Here is the plan:\n\n```json\n" +
				`{"actions":[{"type":"create_folder","name":"Documents"},{"type":"move_file","source":"report.pdf","destination_folder":"Documents"}]}` +
				"\n```\n\nLet me know if you need anything else.",
		},
		{
			name:  "json in prose",
			reply: `Sure! {"actions":[{"type":"create_folder","name":"Documents"},{"type":"move_file","source":"report.pdf","destination_folder":"Documents"}]} Done.`,
		},
		{
			name:  "alternate spellings",
			reply: `{"actions":[{"action":"Create-Folder","folder":" Documents "},{"action":"move","file":"report.pdf","destination":"Documents"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParseResponse(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, wantStandard, plan.Actions)
		})
	}
}

func TestParseResponse_EmptyPlan(t *testing.T) {
	plan, err := ParseResponse(`{"actions": [], "notes": "nothing to do"}`)
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
	assert.Equal(t, "nothing to do", plan.Notes)
}

func TestParseResponse_MalformedActionsAreKeptAsUnknown(t *testing.T) {
	plan, err := ParseResponse(`{"actions":[
		{"type":"delete_file","source":"x"},
		{"type":"create_folder"},
		{"type":"move_file","source":"a.txt"},
		{"name":"NoType"},
		{"type":"create_folder","name":"Ok"}
	]}`)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 5)

	for i := 0; i < 4; i++ {
		assert.Equal(t, models.ActionUnknown, plan.Actions[i].Kind, "action %d", i)
		assert.NotEmpty(t, plan.Actions[i].Invalid)
	}
	assert.Contains(t, plan.Actions[0].Invalid, "delete_file")
	assert.Contains(t, plan.Actions[3].Invalid, "missing type")
	assert.Equal(t, models.CreateFolder("Ok"), plan.Actions[4])
}

func TestParseResponse_Unparseable(t *testing.T) {
	for _, reply := range []string{
		"",
		"   ",
		"I could not decide how to organize these files.",
		`{"files": ["a", "b"]}`,
		"```\nnot a plan\n```",
	} {
		_, err := ParseResponse(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, ExtractJSON(`prefix {"a":{"b":1}} suffix`))
	assert.Equal(t, "", ExtractJSON("no braces"))
	assert.Equal(t, "", ExtractJSON("} backwards {"))
}

func TestFencedBlocks(t *testing.T) {
	src := "intro\n\n```yaml\nactions: []\n```\n\ntext\n\n~~~\nsecond\n~~~\n"
	blocks := fencedBlocks([]byte(src))
	assert.Equal(t, []string{"actions: []\n", "second\n"}, blocks)
}
