package crew

import (
	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
)

// Mode selects which agents a roster contains.
type Mode int

const (
	// ModeFull builds every core agent plus the triager when configured.
	ModeFull Mode = iota
	// ModeTriage builds only the triager, and only when configured.
	ModeTriage
)

type roleDefaults struct {
	title, goal, backstory string
	maxIter                int
}

var defaults = map[Role]roleDefaults{
	RolePlanner:    {"Strategic Planning Agent", "Create comprehensive implementation plans", "Expert software architect", 3},
	RoleCoder:      {"Implementation Agent", "Generate high-quality, maintainable code", "Senior software engineer", 5},
	RoleTester:     {"Quality Assurance Agent", "Ensure comprehensive test coverage", "Testing specialist", 3},
	RoleDocumenter: {"Documentation Agent", "Maintain comprehensive documentation", "Technical writer", 2},
	RoleDeployer:   {"Deployment Agent", "Handle deployment configurations", "DevOps engineer", 2},
	RoleEvolver:    {"System Evolution Agent", "Continuously improve the AI system", "Machine learning engineer", 2},
	RoleTriager:    {"Failure Triage Agent", "Distill failing workflow logs into actionable issues", "Reliability engineer for CI/CD diagnostics", 2},
}

// Roster is the set of agents available for a run.
type Roster struct {
	agents map[Role]RoleDescriptor
	client schemas.LLMClient
}

// NewRoster resolves agent personas from configuration. A nil client yields
// an empty roster.
func NewRoster(agents map[string]config.AgentConfig, client schemas.LLMClient, mode Mode) *Roster {
	r := &Roster{agents: map[Role]RoleDescriptor{}, client: client}
	if client == nil {
		return r
	}

	if mode == ModeFull {
		for _, role := range CoreRoles {
			r.agents[role] = describe(role, agents[role.String()])
		}
	}
	if cfg, ok := agents[RoleTriager.String()]; ok {
		r.agents[RoleTriager] = describe(RoleTriager, cfg)
	}
	return r
}

func describe(role Role, cfg config.AgentConfig) RoleDescriptor {
	d := defaults[role]
	desc := RoleDescriptor{
		Role:           role,
		Title:          d.title,
		Goal:           d.goal,
		Backstory:      d.backstory,
		PromptTemplate: cfg.PromptTemplate,
		MaxIter:        d.maxIter,
	}
	if cfg.Role != "" {
		desc.Title = cfg.Role
	}
	if cfg.Goal != "" {
		desc.Goal = cfg.Goal
	}
	if cfg.Backstory != "" {
		desc.Backstory = cfg.Backstory
	}
	if cfg.MaxIter > 0 {
		desc.MaxIter = cfg.MaxIter
	}
	desc.Options = schemas.GenerationOptions{
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		ForceJSONFormat: cfg.JSONOutput,
	}
	return desc
}

// Get returns the descriptor for role.
func (r *Roster) Get(role Role) (RoleDescriptor, bool) {
	d, ok := r.agents[role]
	return d, ok
}

// Has reports whether role is part of the roster.
func (r *Roster) Has(role Role) bool {
	_, ok := r.agents[role]
	return ok
}

// Len is the number of agents.
func (r *Roster) Len() int { return len(r.agents) }

// Client is the completion client shared by every agent. Nil for an empty roster.
func (r *Roster) Client() schemas.LLMClient { return r.client }
