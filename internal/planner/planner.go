// Package planner turns scanned file samples into an OrganizationPlan by
// asking a language model (or a saved plan file) where each file belongs.
//
// The organizer treats a Planner as an opaque collaborator: it hands over a
// PlanRequest and receives either a plan or a *PlannerError. Retries and
// backoff are not performed here.
package planner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harrison/deeporganizer/internal/models"
)

// DefaultTimeout bounds a single planner call.
const DefaultTimeout = 120 * time.Second

// DefaultModel is used when no model identifier is configured.
const DefaultModel = "claude:sonnet"

// ErrPlanner matches every *PlannerError via errors.Is.
var ErrPlanner = errors.New("planner error")

// PlanRequest is the input handed to a planner.
type PlanRequest struct {
	Root            string              // Absolute scan root, informational only
	Model           string              // Planner identifier, informational only
	Files           []models.FileSample // Files to organize, in scan order
	ExistingFolders []string            // Folders already present under the root
}

// Planner produces an organization plan for a set of files.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*models.OrganizationPlan, error)
	Name() string
}

// PlannerError reports that the planner could not produce a usable plan.
// It is fatal to the run and is raised before anything is mutated.
type PlannerError struct {
	Provider string // Planner name, e.g. "openai:gpt-4o-mini"
	Reason   string // Human-readable reason
	Err      error  // Underlying error (optional)
}

// NewPlannerError creates a PlannerError.
func NewPlannerError(provider, reason string, err error) *PlannerError {
	return &PlannerError{Provider: provider, Reason: reason, Err: err}
}

// Error implements the error interface for PlannerError.
func (e *PlannerError) Error() string {
	msg := fmt.Sprintf("planner %s: %s", e.Provider, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error wrapping support.
func (e *PlannerError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPlanner.
func (e *PlannerError) Is(target error) bool {
	return target == ErrPlanner
}

// Options configures planner construction.
type Options struct {
	// Timeout bounds each planner call (default: DefaultTimeout).
	Timeout time.Duration

	// ClaudePath is the claude CLI binary for the "claude" provider.
	ClaudePath string

	// BaseURL overrides the API endpoint of HTTP providers.
	BaseURL string

	// APIKey overrides the key read from the environment.
	APIKey string

	// Getenv looks up environment variables (default: os.Getenv).
	Getenv func(string) string
}

func (o Options) env(keys ...string) string {
	if o.APIKey != "" {
		return o.APIKey
	}
	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Providers lists the accepted provider prefixes.
var Providers = []string{"claude", "anthropic", "openai", "gemini", "google", "file"}

// ParseModel splits a "provider:model" identifier.
func ParseModel(id string) (string, string, error) {
	id = strings.TrimSpace(id)
	provider, model, ok := strings.Cut(id, ":")
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if !ok || provider == "" || model == "" {
		return "", "", fmt.Errorf("model identifier %q must have the form provider:model (providers: %s)", id, strings.Join(Providers, ", "))
	}
	for _, p := range Providers {
		if p == provider {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("unknown planner provider %q (providers: %s)", provider, strings.Join(Providers, ", "))
}

// New builds the planner named by a "provider:model" identifier.
// Errors returned here are configuration problems, such as a missing API key.
func New(ctx context.Context, modelID string, opts Options) (Planner, error) {
	provider, model, err := ParseModel(modelID)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var c completer
	switch provider {
	case "file":
		return NewStaticPlanner(model), nil
	case "claude":
		c = &ClaudeCLI{Path: opts.ClaudePath, Model: model}
	case "anthropic":
		c, err = NewAnthropicClient(AnthropicConfig{
			APIKey:  opts.env("ANTHROPIC_API_KEY"),
			BaseURL: opts.BaseURL,
			Model:   model,
			Timeout: opts.Timeout,
		})
	case "openai":
		c, err = NewOpenAIClient(OpenAIConfig{
			APIKey:  opts.env("OPENAI_API_KEY"),
			BaseURL: opts.BaseURL,
			Model:   model,
			Timeout: opts.Timeout,
		})
	case "gemini", "google":
		c, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:  opts.env("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			BaseURL: opts.BaseURL,
			Model:   model,
		})
	}
	if err != nil {
		return nil, err
	}
	return &LLMPlanner{
		name:    provider + ":" + model,
		client:  c,
		timeout: opts.Timeout,
	}, nil
}

// completer sends one system+user prompt pair and returns the model's text.
type completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMPlanner renders the request into a prompt, sends it through a
// provider client, and parses the reply.
type LLMPlanner struct {
	name    string
	client  completer
	timeout time.Duration
}

// Ensure LLMPlanner implements the interface.
var _ Planner = (*LLMPlanner)(nil)

// Name returns the provider:model identifier.
func (p *LLMPlanner) Name() string {
	return p.name
}

// Plan asks the model for a plan.
func (p *LLMPlanner) Plan(ctx context.Context, req PlanRequest) (*models.OrganizationPlan, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, NewPlannerError(p.name, "cannot build prompt", err)
	}

	text, err := p.client.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewPlannerError(p.name, fmt.Sprintf("timed out after %s", p.timeout), err)
		}
		return nil, NewPlannerError(p.name, "request failed", err)
	}

	plan, err := ParseResponse(text)
	if err != nil {
		return nil, NewPlannerError(p.name, "unparseable plan", err)
	}
	plan.Model = p.name
	return plan, nil
}
