// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/observability"
)

// resetForTest clears package state between command executions.
func resetForTest(t *testing.T) {
	t.Helper()
	cfgFile = ""
	t.Setenv("AISEED_LOGGER_LEVEL", "fatal")
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})
	t.Cleanup(observability.ResetForTest)
}

// executeCommand runs a fresh command tree with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetForTest(t)

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestSubcommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"evolve", "triage", "serve"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := executeCommand(t, "--config", missing, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize configuration")
}

func TestConfigFileIsValidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflow:\n  summary_chars: 0\n"), 0o600))

	_, err := executeCommand(t, "--config", path, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.summary_chars must be a positive integer")
}

func TestEvolveRequiresFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := executeCommand(t, "evolve", "--issue-number", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Contains(t, err.Error(), "branch-name")
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(t.Context())
	assert.EqualError(t, err, "configuration not found in context")
}
