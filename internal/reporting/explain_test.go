// internal/reporting/explain_test.go
package reporting_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/mocks"
	"github.com/xkilldash9x/aiqa-cli/internal/reporting"
)

func TestStaticEvaluate(t *testing.T) {
	assert.Equal(t, "Test passed. Observed behavior matches the requirement.",
		reporting.StaticEvaluate(schemas.Verdict{Result: schemas.ResultPass}))
	assert.Equal(t, "Test failed. Element not found: x",
		reporting.StaticEvaluate(schemas.Verdict{Result: schemas.ResultFail, Reason: "Element not found: x"}))
}

func TestExplainer_PassSkipsModel(t *testing.T) {
	llm := new(mocks.MockLLMClient)
	e := reporting.NewExplainer(llm, zap.NewNop())

	text, err := e.Explain(context.Background(), schemas.Verdict{Result: schemas.ResultPass}, "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, reporting.PassExplanation, text)
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestExplainer_FailAsksFastTier(t *testing.T) {
	llm := new(mocks.MockLLMClient)
	e := reporting.NewExplainer(llm, zap.NewNop())

	verdict := schemas.Verdict{Result: schemas.ResultFail, Reason: "Expected text containing 'Invalid', but got 'Welcome, admin!'"}
	plan := schemas.Plan{{Action: schemas.ActionCheck, Selector: "message", Value: schemas.NewValue("Invalid")}}

	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		return req.Tier == schemas.TierFast &&
			req.SystemPrompt != "" &&
			containsAll(req.UserPrompt, "wrong password", `"selector": "message"`, "but got 'Welcome, admin!'")
	})).Return("  The app let a wrong password in. Check the password comparison.\n", nil).Once()

	text, err := e.Explain(context.Background(), verdict, "User should not be able to login with wrong password", plan)
	require.NoError(t, err)
	assert.Equal(t, "The app let a wrong password in. Check the password comparison.", text)
	llm.AssertExpectations(t)
}

func TestExplainer_ModelErrorsPropagate(t *testing.T) {
	llm := new(mocks.MockLLMClient)
	e := reporting.NewExplainer(llm, zap.NewNop())
	boom := errors.New("quota exceeded")
	llm.On("Generate", mock.Anything, mock.Anything).Return("", boom)

	_, err := e.Explain(context.Background(), schemas.Verdict{Result: schemas.ResultFail, Reason: "r"}, "req", nil)
	assert.ErrorIs(t, err, boom)
}

func TestExplainer_EmptyAnswerIsReturnedAsIs(t *testing.T) {
	llm := new(mocks.MockLLMClient)
	e := reporting.NewExplainer(llm, zap.NewNop())
	llm.On("Generate", mock.Anything, mock.Anything).Return("  \n ", nil)

	text, err := e.Explain(context.Background(), schemas.Verdict{Result: schemas.ResultFail, Reason: "r"}, "req", nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExplainer_NoModelFallsBack(t *testing.T) {
	e := reporting.NewExplainer(nil, zap.NewNop())
	text, err := e.Explain(context.Background(), schemas.Verdict{Result: schemas.ResultFail, Reason: "boom"}, "req", nil)
	require.NoError(t, err)
	assert.Equal(t, "Test failed. boom", text)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
