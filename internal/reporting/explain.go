// internal/reporting/explain.go
package reporting

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// PassExplanation is returned for every PASS verdict without consulting a model.
const PassExplanation = "Test passed. Observed behavior matches the requirement."

const explainSystemPrompt = `You are a QA engineer reviewing a failed automated UI test.
Explain in two or three plain sentences why the test failed and suggest one concrete fix.
Do not use markdown, bullet points or headings.`

// StaticEvaluate renders a verdict without a model.
func StaticEvaluate(v schemas.Verdict) string {
	if v.Passed() {
		return PassExplanation
	}
	return "Test failed. " + v.Reason
}

// Explainer turns a verdict into a user-facing explanation.
type Explainer struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewExplainer creates an Explainer. With a nil client every FAIL falls back
// to StaticEvaluate.
func NewExplainer(llm schemas.LLMClient, logger *zap.Logger) *Explainer {
	return &Explainer{llm: llm, logger: logger.Named("explainer")}
}

// Explain returns the fixed PASS sentence, or asks the fast model tier to
// explain a FAIL. Model errors are returned unchanged in meaning.
func (e *Explainer) Explain(ctx context.Context, v schemas.Verdict, requirement string, plan schemas.Plan) (string, error) {
	if v.Passed() {
		return PassExplanation, nil
	}
	if e.llm == nil {
		return StaticEvaluate(v), nil
	}

	planJSON, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize executed plan: %w", err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Requirement:\n%q\n\n", requirement)
	fmt.Fprintf(&prompt, "Executed steps (JSON):\n%s\n\n", planJSON)
	fmt.Fprintf(&prompt, "Failure reason:\n%s\n", v.Reason)

	req := schemas.GenerationRequest{
		SystemPrompt: explainSystemPrompt,
		UserPrompt:   prompt.String(),
		Tier:         schemas.TierFast,
	}

	text, err := e.llm.Generate(ctx, req)
	if err != nil {
		e.logger.Warn("Failure explanation request failed.", zap.Error(err))
		return "", fmt.Errorf("failed to explain verdict: %w", err)
	}

	return strings.TrimSpace(text), nil
}
