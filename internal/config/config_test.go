// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, ProviderOpenAI, cfg.LLM().Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM().Model)
	assert.InDelta(t, 0.1, cfg.LLM().Temperature, 1e-9)
	assert.Equal(t, 4096, cfg.LLM().MaxTokens)
	assert.Equal(t, 200, cfg.Workflow().FailureReporting.LogsTailLines)
	assert.Equal(t, []string{"ci-failure", "triage"}, cfg.Workflow().FailureReporting.IssueLabels)
	assert.Equal(t, 1000, cfg.Workflow().SummaryChars)
	assert.Equal(t, 1, cfg.Workflow().MaxConcurrentRuns)
	assert.Equal(t, "main", cfg.GitHub().BaseBranch)
	assert.Equal(t, 30*time.Second, cfg.GitHub().Timeout)
	assert.Equal(t, ":8000", cfg.Server().Addr)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	base := NewDefaultConfig()
	require.NoError(t, base.Validate(), "defaults must validate")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero max tokens", func(c *Config) { c.LLMCfg.MaxTokens = 0 }, "llm_config.max_tokens must be a positive integer"},
		{"temperature too high", func(c *Config) { c.LLMCfg.Temperature = 2.5 }, "llm_config.temperature must be between"},
		{"zero summary chars", func(c *Config) { c.WorkflowCfg.SummaryChars = 0 }, "workflow.summary_chars"},
		{"zero concurrency", func(c *Config) { c.WorkflowCfg.MaxConcurrentRuns = 0 }, "workflow.max_concurrent_runs"},
		{"negative rate", func(c *Config) { c.GitHubCfg.RequestsPerSecond = -1 }, "github.requests_per_second"},
		{"bad repository", func(c *Config) { c.GitHubCfg.Repository = "no-slash" }, "owner/name form"},
		{"agent temperature", func(c *Config) {
			c.AgentsCfg = map[string]AgentConfig{"coder": {Temperature: 3}}
		}, "agents.coder.temperature must be between"},
		{"agent max tokens", func(c *Config) {
			c.AgentsCfg = map[string]AgentConfig{"coder": {MaxTokens: -1}}
		}, "agents.coder.max_tokens cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
llm_config:
  provider: anthropic
  model: claude-sonnet-4-5
  temperature: 0.2
  max_tokens: 2048
agents:
  planner:
    goal: "Plan carefully"
    prompt_template: "Plan issue #{issue_number}"
  coder:
    temperature: 0.4
    max_tokens: 8000
    json_output: true
workflow:
  failure_reporting:
    logs_tail_lines: 50
    issue_labels: [ci, flaky]
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, ProviderAnthropic, cfg.LLM().Provider)
		assert.Equal(t, "claude-sonnet-4-5", cfg.LLM().Model)
		assert.Equal(t, 2048, cfg.LLM().MaxTokens)
		assert.Equal(t, "Plan carefully", cfg.Agents()["planner"].Goal)
		assert.Equal(t, "Plan issue #{issue_number}", cfg.Agents()["planner"].PromptTemplate)
		assert.Equal(t, AgentConfig{Temperature: 0.4, MaxTokens: 8000, JSONOutput: true}, cfg.Agents()["coder"])
		assert.Equal(t, 50, cfg.Workflow().FailureReporting.LogsTailLines)
		assert.Equal(t, []string{"ci", "flaky"}, cfg.Workflow().FailureReporting.IssueLabels)
		// Defaults survive alongside file values.
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("llm_config.max_tokens", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "ghp_from_env")
		t.Setenv("OPENAI_API_KEY", "sk-from-env")
		t.Setenv("AISEED_GITHUB_REPOSITORY", "")
		t.Setenv("GITHUB_REPOSITORY", "octo/seed")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "ghp_from_env", cfg.GitHub().Token)
		assert.Equal(t, "octo/seed", cfg.GitHub().Repository)
		assert.Equal(t, "sk-from-env", cfg.LLM().APIKey)
		assert.NotNil(t, cfg.Agents())
	})
}

func TestHasCompletionCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	assert.False(t, HasCompletionCredential())

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	assert.True(t, HasCompletionCredential())
}

func TestResolveConfigPath(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", "/home/seed")

	p, err := ResolveConfigPath("~/seed_instructions.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/home/seed/seed_instructions.yaml", p)

	p, err = ResolveConfigPath("")
	require.NoError(t, err)
	assert.Empty(t, p)
}
