// File: internal/mcp/types.go
package mcp

import (
	"context"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// Runner is the part of the test pipeline the tools call into. It is
// satisfied by *orchestrator.Orchestrator.
type Runner interface {
	Plan(ctx context.Context, requirement, url string) (schemas.Plan, error)
	Run(ctx context.Context, requirement, url string) (*schemas.RunReport, error)
	RunPlan(ctx context.Context, requirement string, plan schemas.Plan, url string) (*schemas.RunReport, error)
}

// ValidationResult is the structured answer of validate_steps.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
