// File: cmd/planfile.go
package cmd

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/engine"
	"github.com/xkilldash9x/aiqa-cli/internal/orchestrator"
	"github.com/xkilldash9x/aiqa-cli/internal/planner"
)

// readPlanFile loads a plan written as YAML or JSON. The raw document is
// validated before it is decoded, so shape errors carry the same messages as
// generated plans.
func readPlanFile(path string) (schemas.Plan, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand plan path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return parsePlan(data)
}

func parsePlan(data []byte) (schemas.Plan, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if ok, reason := engine.Validate(doc); !ok {
		return nil, &orchestrator.PlanRejectedError{Reason: reason, Raw: data}
	}
	// Re-encode through JSON so the plan decodes with the same rules as model output.
	normalized, err := json.ConfigCompatibleWithStandardLibrary.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize plan: %w", err)
	}
	return planner.DecodePlan(normalized)
}
