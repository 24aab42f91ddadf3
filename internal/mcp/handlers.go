// File: internal/mcp/handlers.go
package mcp

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/engine"
	"github.com/xkilldash9x/aiqa-cli/internal/orchestrator"
	"github.com/xkilldash9x/aiqa-cli/internal/planner"
	"github.com/xkilldash9x/aiqa-cli/internal/reporting"
)

// handleRun implements the run_ui_test tool. Failures of the run itself are
// reported as tool errors, never as protocol errors.
func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requirement := req.GetString("requirement", "")
	url := req.GetString("url", s.defaultURL)
	if url == "" {
		return mcp.NewToolResultError("url argument is required"), nil
	}

	args := req.GetArguments()
	rawSteps, hasSteps := args["steps"]
	if !hasSteps && requirement == "" {
		return mcp.NewToolResultError("requirement or steps argument is required"), nil
	}

	var (
		report *schemas.RunReport
		err    error
	)
	if hasSteps {
		plan, result := decodeSteps(rawSteps)
		if result != nil {
			return result, nil
		}
		report, err = s.runner.RunPlan(ctx, requirement, plan, url)
	} else {
		report, err = s.runner.Run(ctx, requirement, url)
	}

	if err != nil {
		s.logger.Warn("run_ui_test failed.", zap.Error(err))
		if report != nil {
			// The verdict is still meaningful when only the explanation failed.
			return mcp.NewToolResultErrorFromErr(reporting.FormatText(report), err), nil
		}
		return mcp.NewToolResultErrorFromErr("run failed", err), nil
	}
	return mcp.NewToolResultStructured(report, reporting.FormatText(report)), nil
}

// handleGenerate implements the generate_steps tool.
func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requirement, err := req.RequireString("requirement")
	if err != nil || requirement == "" {
		return mcp.NewToolResultError("requirement argument is required"), nil
	}
	url := req.GetString("url", "")

	plan, err := s.runner.Plan(ctx, requirement, url)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("plan generation failed", err), nil
	}
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(plan, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to encode plan", err), nil
	}
	return mcp.NewToolResultStructured(map[string]any{"steps": plan}, string(data)), nil
}

// handleValidate implements the validate_steps tool.
func handleValidate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawSteps, ok := req.GetArguments()["steps"]
	if !ok {
		return mcp.NewToolResultError("steps argument is required"), nil
	}
	valid, message := engine.Validate(rawSteps)
	result := mcp.NewToolResultStructured(ValidationResult{Valid: valid, Message: message}, message)
	result.IsError = !valid
	return result, nil
}

// handleSchema implements the action_schema tool.
func handleSchema(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := planner.PlanSchemaJSON()
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to build schema", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeSteps validates the generic steps argument and converts it to a plan.
// A non-nil result is the tool error to return.
func decodeSteps(raw any) (schemas.Plan, *mcp.CallToolResult) {
	if ok, reason := engine.Validate(raw); !ok {
		return nil, mcp.NewToolResultError((&orchestrator.PlanRejectedError{Reason: reason}).Error())
	}
	data, err := json.ConfigCompatibleWithStandardLibrary.Marshal(raw)
	if err != nil {
		return nil, mcp.NewToolResultErrorFromErr("failed to encode steps", err)
	}
	plan, err := planner.DecodePlan(data)
	if err != nil {
		var invalid *planner.InvalidPlanError
		if errors.As(err, &invalid) {
			return nil, mcp.NewToolResultError(fmt.Sprintf("steps could not be decoded: %v", invalid.Err))
		}
		return nil, mcp.NewToolResultErrorFromErr("steps could not be decoded", err)
	}
	return plan, nil
}
