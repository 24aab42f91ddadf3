// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Runner() RunnerConfig
	Artifacts() ArtifactsConfig
	Agent() AgentConfig
	Fixtures() FixturesConfig
	MCP() MCPConfig
	Metrics() MetricsConfig

	SetBrowserHeadless(bool)
	SetArtifactsDir(string)
	SetAgentAnalyzePage(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	RunnerCfg    RunnerConfig    `mapstructure:"runner" yaml:"runner"`
	ArtifactsCfg ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	AgentCfg     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	FixturesCfg  FixturesConfig  `mapstructure:"fixtures" yaml:"fixtures"`
	MCPCfg       MCPConfig       `mapstructure:"mcp" yaml:"mcp"`
	MetricsCfg   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Runner() RunnerConfig       { return c.RunnerCfg }
func (c *Config) Artifacts() ArtifactsConfig { return c.ArtifactsCfg }
func (c *Config) Agent() AgentConfig         { return c.AgentCfg }
func (c *Config) Fixtures() FixturesConfig   { return c.FixturesCfg }
func (c *Config) MCP() MCPConfig             { return c.MCPCfg }
func (c *Config) Metrics() MetricsConfig     { return c.MetricsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)  { c.BrowserCfg.Headless = b }
func (c *Config) SetArtifactsDir(dir string) { c.ArtifactsCfg.Dir = dir }
func (c *Config) SetAgentAnalyzePage(b bool) { c.AgentCfg.AnalyzePage = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driven over CDP.
type BrowserConfig struct {
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
	NoSandbox    bool     `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	Debug        bool     `mapstructure:"debug" yaml:"debug"`
	Args         []string `mapstructure:"args" yaml:"args"`
}

// RunnerConfig tunes the step interpreter's wait and settle policy.
type RunnerConfig struct {
	DefaultTimeout  time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout" yaml:"fallback_timeout"`
	DefaultWaitMs   int           `mapstructure:"default_wait_ms" yaml:"default_wait_ms"`
	ClickSettle     time.Duration `mapstructure:"click_settle" yaml:"click_settle"`
	CheckSettle     time.Duration `mapstructure:"check_settle" yaml:"check_settle"`
	FinalSettle     time.Duration `mapstructure:"final_settle" yaml:"final_settle"`
	// TolerateEmptyText keeps a check going when its element never gains text
	// within DefaultTimeout. Turning it off makes that wait fatal.
	TolerateEmptyText bool `mapstructure:"tolerate_empty_text" yaml:"tolerate_empty_text"`
}

// ArtifactsConfig controls where screenshots are written.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// AgentConfig holds settings for plan generation and failure explanation.
type AgentConfig struct {
	LLM         LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	RepairJSON  bool            `mapstructure:"repair_json" yaml:"repair_json"`
	AnalyzePage bool            `mapstructure:"analyze_page" yaml:"analyze_page"`
}

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP              float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK              int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// FixturesConfig configures the static fixture site server.
type FixturesConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Dir overrides the embedded fixture pages when set. It must contain
	// login/index.html and signup/index.html.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "aiqa")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 768)
	v.SetDefault("browser.debug", false)

	// -- Runner --
	v.SetDefault("runner.default_timeout", "10s")
	v.SetDefault("runner.poll_interval", "250ms")
	v.SetDefault("runner.fallback_timeout", "2s")
	v.SetDefault("runner.default_wait_ms", 1000)
	v.SetDefault("runner.click_settle", "300ms")
	v.SetDefault("runner.check_settle", "500ms")
	v.SetDefault("runner.final_settle", "1s")
	v.SetDefault("runner.tolerate_empty_text", true)

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "screenshots")

	// -- Agent --
	v.SetDefault("agent.repair_json", false)
	v.SetDefault("agent.analyze_page", false)
	v.SetDefault("agent.llm.default_fast_model", "flash")
	v.SetDefault("agent.llm.default_powerful_model", "flash")
	v.SetDefault("agent.llm.models.flash.provider", string(ProviderGemini))
	v.SetDefault("agent.llm.models.flash.model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.models.flash.api_timeout", "60s")
	v.SetDefault("agent.llm.models.flash.temperature", 0.2)
	v.SetDefault("agent.llm.models.flash.requests_per_minute", 0)

	// -- Fixtures --
	v.SetDefault("fixtures.addr", ":8000")
	v.SetDefault("fixtures.dir", "")

	// -- MCP --
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.addr", ":8090")

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The upstream tooling reads these two variables directly, so honour them.
	_ = v.BindEnv("agent.llm.models.flash.api_key", "AIQA_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("agent.llm.models.flash.model", "AIQA_GEMINI_MODEL", "GEMINI_MODEL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.RunnerCfg.Validate(); err != nil {
		return fmt.Errorf("runner configuration invalid: %w", err)
	}
	if c.ArtifactsCfg.Dir == "" {
		return fmt.Errorf("artifacts.dir must not be empty")
	}
	if err := c.AgentCfg.LLM.Validate(); err != nil {
		return fmt.Errorf("agent.llm configuration invalid: %w", err)
	}
	switch c.MCPCfg.Transport {
	case "", "stdio", "sse", "streamable-http":
	default:
		return fmt.Errorf("mcp.transport must be one of stdio, sse, streamable-http")
	}
	return nil
}

// Validate checks the RunnerConfig timings.
func (r *RunnerConfig) Validate() error {
	if r.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout must be a positive duration")
	}
	if r.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if r.FallbackTimeout <= 0 {
		return fmt.Errorf("fallback_timeout must be a positive duration")
	}
	if r.DefaultWaitMs < 0 {
		return fmt.Errorf("default_wait_ms must not be negative")
	}
	if r.ClickSettle < 0 || r.CheckSettle < 0 || r.FinalSettle < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}
	return nil
}

// Validate checks that the router's tiers name usable models.
func (l *LLMRouterConfig) Validate() error {
	if l.DefaultFastModel == "" || l.DefaultPowerfulModel == "" {
		return fmt.Errorf("default_fast_model and default_powerful_model are required")
	}
	for name, m := range l.Models {
		if m.Provider != "" && m.Provider != ProviderGemini {
			return fmt.Errorf("model %q: unsupported provider %q", name, m.Provider)
		}
		if m.RequestsPerMinute < 0 {
			return fmt.Errorf("model %q: requests_per_minute must not be negative", name)
		}
	}
	return nil
}

// ResolveModel returns the model configuration for an alias. Unknown aliases are
// treated as raw Gemini model names so a bare "gemini-2.5-pro" works without a
// models entry.
func (l *LLMRouterConfig) ResolveModel(alias string) LLMModelConfig {
	if m, ok := l.Models[alias]; ok {
		if m.Provider == "" {
			m.Provider = ProviderGemini
		}
		if m.Model == "" {
			m.Model = alias
		}
		return m
	}
	return LLMModelConfig{Provider: ProviderGemini, Model: alias}
}
