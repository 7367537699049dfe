// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	LLM() LLMConfig
	Agents() map[string]AgentConfig
	Workflow() WorkflowConfig
	GitHub() GitHubConfig
	Server() ServerConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig           `mapstructure:"logger" yaml:"logger"`
	LLMCfg      LLMConfig              `mapstructure:"llm_config" yaml:"llm_config"`
	AgentsCfg   map[string]AgentConfig `mapstructure:"agents" yaml:"agents"`
	WorkflowCfg WorkflowConfig         `mapstructure:"workflow" yaml:"workflow"`
	GitHubCfg   GitHubConfig           `mapstructure:"github" yaml:"github"`
	ServerCfg   ServerConfig           `mapstructure:"server" yaml:"server"`
}

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) LLM() LLMConfig                 { return c.LLMCfg }
func (c *Config) Agents() map[string]AgentConfig { return c.AgentsCfg }
func (c *Config) Workflow() WorkflowConfig       { return c.WorkflowCfg }
func (c *Config) GitHub() GitHubConfig           { return c.GitHubCfg }
func (c *Config) Server() ServerConfig           { return c.ServerCfg }

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
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// LLMProvider defines the supported completion providers.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
)

// CredentialEnv maps each provider to the environment variable holding its API key.
var CredentialEnv = map[LLMProvider]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// LLMConfig is the `llm_config` section: one shared completion client for every role.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
}

// AgentConfig carries per-role overrides. Empty fields fall back to built-in defaults.
type AgentConfig struct {
	Role           string `mapstructure:"role" yaml:"role"`
	Goal           string `mapstructure:"goal" yaml:"goal"`
	Backstory      string `mapstructure:"backstory" yaml:"backstory"`
	PromptTemplate string `mapstructure:"prompt_template" yaml:"prompt_template"`
	MaxIter        int    `mapstructure:"max_iter" yaml:"max_iter"`
	// Zero values inherit llm_config.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	JSONOutput  bool    `mapstructure:"json_output" yaml:"json_output"`
}

// WorkflowConfig tunes the evolution workflow and the failure reporting path.
type WorkflowConfig struct {
	SummaryChars       int                    `mapstructure:"summary_chars" yaml:"summary_chars"`
	AggregateSummaries bool                   `mapstructure:"aggregate_summaries" yaml:"aggregate_summaries"`
	MaxConcurrentRuns  int                    `mapstructure:"max_concurrent_runs" yaml:"max_concurrent_runs"`
	FailureReporting   FailureReportingConfig `mapstructure:"failure_reporting" yaml:"failure_reporting"`
}

// FailureReportingConfig is the `workflow.failure_reporting` section.
type FailureReportingConfig struct {
	LogsTailLines int      `mapstructure:"logs_tail_lines" yaml:"logs_tail_lines"`
	IssueLabels   []string `mapstructure:"issue_labels" yaml:"issue_labels"`
}

// GitHubConfig holds the source-control client settings. The token is never
// written back out.
type GitHubConfig struct {
	Token             string        `mapstructure:"token" yaml:"-"`
	Repository        string        `mapstructure:"repository" yaml:"repository"`
	BaseBranch        string        `mapstructure:"base_branch" yaml:"base_branch"`
	APIURL            string        `mapstructure:"api_url" yaml:"api_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig configures the demo web service.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
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
	v.SetDefault("logger.service_name", "aiseed")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- LLM --
	v.SetDefault("llm_config.provider", string(ProviderOpenAI))
	v.SetDefault("llm_config.model", "gpt-4o")
	v.SetDefault("llm_config.temperature", 0.1)
	v.SetDefault("llm_config.max_tokens", 4096)
	v.SetDefault("llm_config.api_timeout", "5m")

	// -- Workflow --
	v.SetDefault("workflow.summary_chars", 1000)
	v.SetDefault("workflow.aggregate_summaries", false)
	v.SetDefault("workflow.max_concurrent_runs", 1)
	v.SetDefault("workflow.failure_reporting.logs_tail_lines", 200)
	v.SetDefault("workflow.failure_reporting.issue_labels", []string{"ci-failure", "triage"})

	// -- GitHub --
	v.SetDefault("github.base_branch", "main")
	v.SetDefault("github.requests_per_second", 5.0)
	v.SetDefault("github.timeout", "30s")

	// -- Server --
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
// Credentials are resolved from the environment when the file leaves them empty.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	_ = v.BindEnv("github.token", "GITHUB_TOKEN", "AISEED_GITHUB_TOKEN")
	_ = v.BindEnv("github.repository", "AISEED_GITHUB_REPOSITORY", "GITHUB_REPOSITORY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LLMCfg.APIKey == "" {
		cfg.LLMCfg.APIKey = os.Getenv(CredentialEnv[cfg.LLMCfg.Provider])
	}
	if cfg.AgentsCfg == nil {
		cfg.AgentsCfg = map[string]AgentConfig{}
	}
	if cfg.LoggerCfg.LogFile != "" {
		expanded, err := homedir.Expand(cfg.LoggerCfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to expand logger.log_file: %w", err)
		}
		cfg.LoggerCfg.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
// The GitHub token is checked where the client is built, since the demo
// service runs without one.
func (c *Config) Validate() error {
	if c.LLMCfg.MaxTokens <= 0 {
		return fmt.Errorf("llm_config.max_tokens must be a positive integer")
	}
	if c.LLMCfg.Temperature < 0 || c.LLMCfg.Temperature > 2 {
		return fmt.Errorf("llm_config.temperature must be between 0.0 and 2.0")
	}
	if c.WorkflowCfg.SummaryChars <= 0 {
		return fmt.Errorf("workflow.summary_chars must be a positive integer")
	}
	if c.WorkflowCfg.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("workflow.max_concurrent_runs must be a positive integer")
	}
	for name, a := range c.AgentsCfg {
		if a.Temperature < 0 || a.Temperature > 2 {
			return fmt.Errorf("agents.%s.temperature must be between 0.0 and 2.0", name)
		}
		if a.MaxTokens < 0 {
			return fmt.Errorf("agents.%s.max_tokens cannot be negative", name)
		}
	}
	if c.GitHubCfg.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second cannot be negative")
	}
	if c.GitHubCfg.Repository != "" && !strings.Contains(c.GitHubCfg.Repository, "/") {
		return fmt.Errorf("github.repository must be in owner/name form, got %q", c.GitHubCfg.Repository)
	}
	return nil
}

// HasCompletionCredential reports whether any supported provider has an API key in the environment.
func HasCompletionCredential() bool {
	for _, env := range CredentialEnv {
		if os.Getenv(env) != "" {
			return true
		}
	}
	return false
}

// ResolveConfigPath expands a leading ~ in a user supplied config path.
func ResolveConfigPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return homedir.Expand(path)
}
