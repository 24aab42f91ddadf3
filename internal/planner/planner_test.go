// internal/planner/planner_test.go
package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/mocks"
)

const wrongPasswordPlan = `[
  {"action": "navigate"},
  {"action": "input", "selector": "username", "value": "wronguser"},
  {"action": "input", "selector": "password", "value": "wrongpass"},
  {"action": "click", "selector": "button"},
  {"action": "check", "selector": "message", "value": "invalid"}
]`

func newTestPlanner(t *testing.T, repair bool) (*Planner, *mocks.MockLLMClient) {
	t.Helper()
	llm := new(mocks.MockLLMClient)
	p, err := New(llm, repair, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p, llm
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil, false, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestGenerate_RequestShape(t *testing.T) {
	p, llm := newTestPlanner(t, false)

	var captured schemas.GenerationRequest
	llm.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(schemas.GenerationRequest) }).
		Return(wrongPasswordPlan, nil).Once()

	raw, err := p.Generate(context.Background(), "User should not be able to login with wrong password", `{"elements":[]}`)
	require.NoError(t, err)
	assert.JSONEq(t, wrongPasswordPlan, string(raw))

	assert.Equal(t, schemas.TierPowerful, captured.Tier)
	assert.True(t, captured.Options.ForceJSONFormat)
	assert.Contains(t, captured.SystemPrompt, "navigate, input, click, check, wait")
	assert.Contains(t, captured.SystemPrompt, "message (result text)")
	assert.Contains(t, captured.SystemPrompt, `"oneOf"`)
	assert.Contains(t, captured.UserPrompt, `"User should not be able to login with wrong password"`)
	assert.Contains(t, captured.UserPrompt, `Page elements (JSON):`)
	llm.AssertExpectations(t)
}

func TestGenerate_NoPageContext(t *testing.T) {
	p, llm := newTestPlanner(t, false)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		return !strings.Contains(req.UserPrompt, "Page elements")
	})).Return(wrongPasswordPlan, nil)

	_, err := p.Generate(context.Background(), "req", "")
	require.NoError(t, err)
}

func TestGenerate_StripsFencesAndProse(t *testing.T) {
	testCases := []struct {
		name  string
		reply string
	}{
		{"fenced", "```json\n" + wrongPasswordPlan + "\n```"},
		{"bare fence", "```\n" + wrongPasswordPlan + "\n```"},
		{"prose", "Here are the steps:\n" + wrongPasswordPlan + "\nGood luck."},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, llm := newTestPlanner(t, false)
			llm.On("Generate", mock.Anything, mock.Anything).Return(tc.reply, nil)

			raw, err := p.Generate(context.Background(), "req", "")
			require.NoError(t, err)
			assert.JSONEq(t, wrongPasswordPlan, string(raw))
		})
	}
}

func TestGenerate_NonListStillDecodes(t *testing.T) {
	// Rejecting non-list documents is the validator's job.
	p, llm := newTestPlanner(t, false)
	llm.On("Generate", mock.Anything, mock.Anything).Return(`{"action":"navigate"}`, nil)

	raw, err := p.Generate(context.Background(), "req", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"navigate"}`, string(raw))
}

func TestGenerate_InvalidJSON(t *testing.T) {
	p, llm := newTestPlanner(t, false)
	reply := `[{"action": "navigate",}, {"action": 'click' selector: button}`
	llm.On("Generate", mock.Anything, mock.Anything).Return(reply, nil)

	_, err := p.Generate(context.Background(), "req", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPlanJSON)

	var ipe *InvalidPlanError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, reply, ipe.Raw)
	assert.Contains(t, err.Error(), reply)
}

func TestGenerate_RepairsWhenEnabled(t *testing.T) {
	p, llm := newTestPlanner(t, true)
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(`[{"action": "navigate"}, {"action": "click", "selector": "button",},]`, nil)

	raw, err := p.Generate(context.Background(), "req", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"action":"navigate"},{"action":"click","selector":"button"}]`, string(raw))
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	p, llm := newTestPlanner(t, false)
	boom := errors.New("quota exceeded")
	llm.On("Generate", mock.Anything, mock.Anything).Return("", boom)

	_, err := p.Generate(context.Background(), "req", "")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidPlanJSON)
}

func TestDecodePlan(t *testing.T) {
	plan, err := DecodePlan([]byte(wrongPasswordPlan))
	require.NoError(t, err)

	want := schemas.Plan{
		{Action: schemas.ActionNavigate},
		{Action: schemas.ActionInput, Selector: "username", Value: schemas.NewValue("wronguser")},
		{Action: schemas.ActionInput, Selector: "password", Value: schemas.NewValue("wrongpass")},
		{Action: schemas.ActionClick, Selector: "button"},
		{Action: schemas.ActionCheck, Selector: "message", Value: schemas.NewValue("invalid")},
	}
	if diff := cmp.Diff(want, plan, cmp.AllowUnexported(schemas.ActionValue{})); diff != "" {
		t.Errorf("DecodePlan() mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodePlan([]byte(`[{"action":"input","selector":42}]`))
	assert.ErrorIs(t, err, ErrInvalidPlanJSON)
}

func TestPlanSchemaJSON(t *testing.T) {
	data, err := PlanSchemaJSON()
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"type": "array"`)
	assert.Contains(t, s, `"selectorType"`)
	assert.Contains(t, s, `"partial_link_text"`)
	assert.NotContains(t, s, `"$ref"`)
}
