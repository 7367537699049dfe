package crew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/mocks"
)

func TestParseRole(t *testing.T) {
	for _, r := range []Role{RolePlanner, RoleCoder, RoleTester, RoleDocumenter, RoleDeployer, RoleEvolver, RoleTriager} {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	parsed, err := ParseRole("  Planner ")
	require.NoError(t, err)
	assert.Equal(t, RolePlanner, parsed)

	_, err = ParseRole("janitor")
	assert.Error(t, err)
	assert.Equal(t, "Role(42)", Role(42).String())
}

func TestNewRoster_FullMode(t *testing.T) {
	client := new(mocks.MockLLMClient)

	t.Run("core roles with defaults and no triager", func(t *testing.T) {
		r := NewRoster(nil, client, ModeFull)
		assert.Equal(t, len(CoreRoles), r.Len())
		assert.False(t, r.Has(RoleTriager))

		coder, ok := r.Get(RoleCoder)
		require.True(t, ok)
		assert.Equal(t, "Implementation Agent", coder.Title)
		assert.Equal(t, "Generate high-quality, maintainable code", coder.Goal)
		assert.Equal(t, "Senior software engineer", coder.Backstory)
		assert.Equal(t, 5, coder.MaxIter)
		assert.Zero(t, coder.Options)
	})

	t.Run("configured values override defaults", func(t *testing.T) {
		r := NewRoster(map[string]config.AgentConfig{
			"planner": {Role: "Chief Architect", PromptTemplate: "Plan {issue_title}", MaxIter: 7, Temperature: 0.3, MaxTokens: 2000, JSONOutput: true},
			"triager": {PromptTemplate: "Triage {workflow_name}"},
		}, client, ModeFull)

		assert.Equal(t, len(CoreRoles)+1, r.Len())
		planner, _ := r.Get(RolePlanner)
		assert.Equal(t, "Chief Architect", planner.Title)
		assert.Equal(t, "Create comprehensive implementation plans", planner.Goal)
		assert.Equal(t, "Plan {issue_title}", planner.PromptTemplate)
		assert.Equal(t, 7, planner.MaxIter)
		assert.Equal(t, schemas.GenerationOptions{Temperature: 0.3, MaxTokens: 2000, ForceJSONFormat: true}, planner.Options)

		triager, ok := r.Get(RoleTriager)
		require.True(t, ok)
		assert.Equal(t, "Failure Triage Agent", triager.Title)
		assert.Equal(t, 2, triager.MaxIter)
	})
}

func TestNewRoster_TriageMode(t *testing.T) {
	client := new(mocks.MockLLMClient)

	r := NewRoster(map[string]config.AgentConfig{"planner": {}}, client, ModeTriage)
	assert.Zero(t, r.Len(), "triage mode without a triager entry is empty")

	r = NewRoster(map[string]config.AgentConfig{"triager": {Goal: "find the bug"}}, client, ModeTriage)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has(RoleTriager))
	assert.False(t, r.Has(RolePlanner))
}

func TestNewRoster_NoClient(t *testing.T) {
	r := NewRoster(map[string]config.AgentConfig{"triager": {}}, nil, ModeFull)
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Client())
}

func TestRoleDescriptor_SystemPrompt(t *testing.T) {
	d := RoleDescriptor{Title: "Testing specialist agent", Goal: "Cover edge cases.", Backstory: "Ten years of QA"}
	p := d.SystemPrompt()
	assert.Contains(t, p, "You are Testing specialist agent.")
	assert.Contains(t, p, "Your goal: Cover edge cases.")
	assert.Contains(t, p, "Background: Ten years of QA.")
}
