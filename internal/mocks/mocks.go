// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Runner() config.RunnerConfig {
	args := m.Called()
	return args.Get(0).(config.RunnerConfig)
}

func (m *MockConfig) Artifacts() config.ArtifactsConfig {
	args := m.Called()
	return args.Get(0).(config.ArtifactsConfig)
}

func (m *MockConfig) Agent() config.AgentConfig {
	args := m.Called()
	return args.Get(0).(config.AgentConfig)
}

func (m *MockConfig) Fixtures() config.FixturesConfig {
	args := m.Called()
	return args.Get(0).(config.FixturesConfig)
}

func (m *MockConfig) MCP() config.MCPConfig {
	args := m.Called()
	return args.Get(0).(config.MCPConfig)
}

func (m *MockConfig) Metrics() config.MetricsConfig {
	args := m.Called()
	return args.Get(0).(config.MetricsConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool) {
	m.Called(b)
}

func (m *MockConfig) SetArtifactsDir(dir string) {
	m.Called(dir)
}

func (m *MockConfig) SetAgentAnalyzePage(b bool) {
	m.Called(b)
}

// -- LLM Client Mock --

// MockLLMClient mocks schemas.LLMClient.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// -- Notifier Mock --

// MockNotifier mocks schemas.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

// -- Pipeline Stage Mocks --

// MockPageAnalyzer mocks the page analysis capability.
type MockPageAnalyzer struct {
	mock.Mock
}

func (m *MockPageAnalyzer) Analyze(ctx context.Context, url string) string {
	return m.Called(ctx, url).String(0)
}

// MockPlanner mocks requirement-to-plan generation.
type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) Generate(ctx context.Context, requirement, pageContext string) ([]byte, error) {
	args := m.Called(ctx, requirement, pageContext)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

// MockExecutor mocks plan execution.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, plan schemas.Plan, url string) schemas.Verdict {
	return m.Called(ctx, plan, url).Get(0).(schemas.Verdict)
}

// MockExplainer mocks verdict explanation.
type MockExplainer struct {
	mock.Mock
}

func (m *MockExplainer) Explain(ctx context.Context, v schemas.Verdict, requirement string, plan schemas.Plan) (string, error) {
	args := m.Called(ctx, v, requirement, plan)
	return args.String(0), args.Error(1)
}

// MockRunner mocks the pipeline entry points used by the MCP tools.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Plan(ctx context.Context, requirement, url string) (schemas.Plan, error) {
	args := m.Called(ctx, requirement, url)
	plan, _ := args.Get(0).(schemas.Plan)
	return plan, args.Error(1)
}

func (m *MockRunner) Run(ctx context.Context, requirement, url string) (*schemas.RunReport, error) {
	args := m.Called(ctx, requirement, url)
	report, _ := args.Get(0).(*schemas.RunReport)
	return report, args.Error(1)
}

func (m *MockRunner) RunPlan(ctx context.Context, requirement string, plan schemas.Plan, url string) (*schemas.RunReport, error) {
	args := m.Called(ctx, requirement, plan, url)
	report, _ := args.Get(0).(*schemas.RunReport)
	return report, args.Error(1)
}
