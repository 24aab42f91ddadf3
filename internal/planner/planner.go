// internal/planner/planner.go
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/llmutil"
)

// ErrInvalidPlanJSON marks model output that could not be read as JSON.
var ErrInvalidPlanJSON = errors.New("invalid JSON returned by model")

// InvalidPlanError carries the raw model output that failed to decode.
type InvalidPlanError struct {
	Raw string
	Err error
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("%s:\n%s", ErrInvalidPlanJSON, e.Raw)
}

func (e *InvalidPlanError) Unwrap() []error {
	return []error{ErrInvalidPlanJSON, e.Err}
}

// Planner asks the model for a test plan.
type Planner struct {
	llm    schemas.LLMClient
	repair bool
	logger *zap.Logger

	systemPrompt string
}

// New builds a Planner. With repair set, almost-JSON output is passed through
// a JSON repair step before it is rejected.
func New(llm schemas.LLMClient, repair bool, logger *zap.Logger) (*Planner, error) {
	if llm == nil {
		return nil, errors.New("llm client cannot be nil")
	}
	prompt, err := buildSystemPrompt()
	if err != nil {
		return nil, err
	}
	return &Planner{
		llm:          llm,
		repair:       repair,
		logger:       logger.Named("planner"),
		systemPrompt: prompt,
	}, nil
}

// Generate turns a requirement into plan JSON. pageContext, when not empty, is
// the page-analysis summary of the target URL. The result is syntactically
// valid JSON but has not been validated as a plan.
func (p *Planner) Generate(ctx context.Context, requirement, pageContext string) ([]byte, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: p.systemPrompt,
		UserPrompt:   buildUserPrompt(requirement, pageContext),
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	}

	p.logger.Debug("Requesting test plan.", zap.String("requirement", requirement), zap.Bool("page_context", pageContext != ""))
	raw, err := p.llm.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}
	return p.extract(raw)
}

// extract pulls the JSON document out of a model reply, repairing it if enabled.
func (p *Planner) extract(raw string) ([]byte, error) {
	body := llmutil.ExtractJSON(raw)
	if json.Valid([]byte(body)) {
		return []byte(body), nil
	}

	if p.repair {
		fixed, err := llmutil.RepairJSON(body)
		if err == nil && json.Valid([]byte(fixed)) {
			p.logger.Warn("Model output was not valid JSON; repaired it.",
				zap.String("raw", llmutil.TruncateString(raw, 200)))
			return []byte(fixed), nil
		}
	}

	return nil, &InvalidPlanError{Raw: strings.TrimSpace(raw), Err: errors.New("no JSON document found")}
}

// DecodePlan converts validated plan JSON into typed actions.
func DecodePlan(data []byte) (schemas.Plan, error) {
	var plan schemas.Plan
	if err := json.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &plan); err != nil {
		return nil, &InvalidPlanError{Raw: string(data), Err: err}
	}
	return plan, nil
}

func buildSystemPrompt() (string, error) {
	schemaJSON, err := PlanSchemaJSON()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a software QA engineer.\n")
	b.WriteString("Convert the requirement you are given into browser test steps in STRICT JSON format.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Output ONLY a JSON array, no markdown and no explanations.\n")
	b.WriteString("- Use ONLY these actions: navigate, input, click, check, wait.\n")
	b.WriteString("- input, click and check need a selector. Prefer id selectors; set selectorType only when another strategy is required.\n")
	b.WriteString("- check passes when the element text contains value, ignoring case.\n")
	b.WriteString("- wait takes a value in milliseconds.\n")
	b.WriteString("- Unless page elements are listed, assume a login page with:\n")
	b.WriteString("  - username (input id)\n")
	b.WriteString("  - password (input id)\n")
	b.WriteString("  - button (login button)\n")
	b.WriteString("  - message (result text)\n\n")
	b.WriteString("Expected JSON format:\n")
	b.WriteString(exampleJSON)
	b.WriteString("\n\nJSON Schema of the output:\n")
	b.Write(schemaJSON)
	return b.String(), nil
}

const exampleJSON = `[
  { "action": "navigate" },
  { "action": "input", "selector": "username", "value": "wronguser" },
  { "action": "input", "selector": "password", "value": "wrongpass" },
  { "action": "click", "selector": "button" },
  { "action": "check", "selector": "message", "value": "Invalid" }
]`

func buildUserPrompt(requirement, pageContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requirement:\n%q\n", requirement)
	if pageContext != "" {
		fmt.Fprintf(&b, "\nPage elements (JSON):\n%s\n", pageContext)
	}
	return b.String()
}
