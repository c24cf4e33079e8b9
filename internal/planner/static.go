package planner

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/deeporganizer/internal/models"
)

// StaticPlanner replays a plan saved to a YAML or JSON file, ignoring the
// request. It powers the "file:" model identifier and plan validation.
type StaticPlanner struct {
	path string
}

// Ensure StaticPlanner implements the interface.
var _ Planner = (*StaticPlanner)(nil)

// NewStaticPlanner creates a planner that reads its plan from path.
func NewStaticPlanner(path string) *StaticPlanner {
	return &StaticPlanner{path: path}
}

// Name returns "file:<path>".
func (p *StaticPlanner) Name() string {
	return "file:" + p.path
}

// Plan loads and parses the plan file.
func (p *StaticPlanner) Plan(ctx context.Context, req PlanRequest) (*models.OrganizationPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewPlannerError(p.Name(), "canceled", err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, NewPlannerError(p.Name(), "cannot read plan file", err)
	}
	plan, err := ParseResponse(string(data))
	if err != nil {
		return nil, NewPlannerError(p.Name(), "unparseable plan file", err)
	}
	if plan.Model == "" {
		plan.Model = p.Name()
	}
	return plan, nil
}

// MarshalPlan renders a plan in the YAML form StaticPlanner reads back.
func MarshalPlan(plan *models.OrganizationPlan) ([]byte, error) {
	if plan == nil {
		plan = &models.OrganizationPlan{}
	}
	data, err := yaml.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return data, nil
}
