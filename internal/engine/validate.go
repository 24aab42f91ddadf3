// internal/engine/validate.go
package engine

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

const validStepsMessage = "Valid steps"

// Validate checks a decoded plan before anything touches the browser. steps may
// be the generic result of json.Unmarshal into any, or an already typed plan.
// It returns the first problem found, in plan order.
func Validate(steps any) (bool, string) {
	switch s := steps.(type) {
	case schemas.Plan:
		return validateTyped(s)
	case []schemas.Action:
		return validateTyped(s)
	case []map[string]any:
		generic := make([]any, len(s))
		for i, m := range s {
			generic[i] = m
		}
		return validateGeneric(generic)
	case []any:
		return validateGeneric(s)
	default:
		return false, "Steps must be a list"
	}
}

// ValidateJSON decodes raw and validates the result.
func ValidateJSON(raw []byte) (bool, string) {
	var decoded any
	if err := json.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &decoded); err != nil {
		return false, "Steps must be a list"
	}
	return Validate(decoded)
}

func validateGeneric(steps []any) (bool, string) {
	for _, raw := range steps {
		step, ok := raw.(map[string]any)
		if !ok {
			return false, "Missing action"
		}
		action, ok := step["action"]
		if !ok {
			return false, "Missing action"
		}
		name, isString := action.(string)
		if !isString {
			return false, fmt.Sprintf("Invalid action: %v", action)
		}
		kind := schemas.ActionKind(name)
		if _, allowed := schemas.AllowedActions[kind]; !allowed {
			return false, fmt.Sprintf("Invalid action: %s", name)
		}
		if kind.RequiresSelector() {
			if _, ok := step["selector"]; !ok {
				return false, "Missing selector"
			}
		}
	}
	return true, validStepsMessage
}

// validateTyped applies the same rules to a decoded plan. Absent and empty
// fields are indistinguishable here, so empty counts as missing.
func validateTyped(steps []schemas.Action) (bool, string) {
	for _, step := range steps {
		if step.Action == "" {
			return false, "Missing action"
		}
		if _, allowed := schemas.AllowedActions[step.Action]; !allowed {
			return false, fmt.Sprintf("Invalid action: %s", step.Action)
		}
		if step.Action.RequiresSelector() && step.Selector == "" {
			return false, "Missing selector"
		}
	}
	return true, validStepsMessage
}
