package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ClaudeCLI completes prompts through the local claude CLI.
// It follows the http.Client pattern: create once, use many times.
type ClaudeCLI struct {
	// Path is the path to the claude CLI binary.
	// Defaults to "claude" (found in PATH).
	Path string

	// Model is passed through --model unless empty or "default".
	Model string
}

// cliEnvelope is the document printed by --output-format json.
type cliEnvelope struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	IsError          bool            `json:"is_error"`
	Result           string          `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output"`
	SessionID        string          `json:"session_id"`
}

// Complete runs one non-interactive claude invocation.
// Always includes: --system-prompt, -p, --json-schema, --output-format json, --settings
func (c *ClaudeCLI) Complete(ctx context.Context, system, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	args := []string{
		"--system-prompt", system,
		"-p", prompt,
		"--json-schema", PlanSchema(),
		"--output-format", "json",
		// Disable hooks for automation
		"--settings", `{"disableAllHooks": true}`,
	}
	if c.Model != "" && c.Model != "default" {
		args = append(args, "--model", c.Model)
	}

	claudePath := c.Path
	if claudePath == "" {
		claudePath = "claude"
	}

	cmd := exec.CommandContext(ctx, claudePath, args...)
	setCleanEnv(cmd)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("claude invocation failed: %w (output: %s)", err, truncate(string(output), 500))
	}
	return parseCLIOutput(output)
}

// parseCLIOutput unwraps the CLI's JSON envelope, preferring the
// schema-validated structured output over the free-text result.
func parseCLIOutput(output []byte) (string, error) {
	raw := ExtractJSON(string(output))
	if raw == "" {
		return strings.TrimSpace(string(output)), nil
	}

	var env cliEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.Type == "" {
		// Not an envelope; the CLI printed the plan itself.
		return raw, nil
	}
	if env.IsError {
		return "", fmt.Errorf("claude reported an error (%s): %s", env.Subtype, truncate(env.Result, 500))
	}
	if len(env.StructuredOutput) > 0 && string(env.StructuredOutput) != "null" {
		return string(env.StructuredOutput), nil
	}
	if strings.TrimSpace(env.Result) == "" {
		return "", fmt.Errorf("claude returned an empty result")
	}
	return env.Result, nil
}

// setCleanEnv points TMPDIR at a dedicated directory so editor socket files
// in the shared temp dir do not reach the CLI.
func setCleanEnv(cmd *exec.Cmd) {
	tmp := filepath.Join(os.TempDir(), "deeporganizer-claude")
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return
	}

	cmd.Env = os.Environ()
	for i, env := range cmd.Env {
		if strings.HasPrefix(env, "TMPDIR=") {
			cmd.Env[i] = "TMPDIR=" + tmp
			return
		}
	}
	cmd.Env = append(cmd.Env, "TMPDIR="+tmp)
}
