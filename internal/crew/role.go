// Package crew holds the agent roster and the coordinator that drives the
// multi-step evolution workflow through an LLM.
package crew

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/aiseed/api/schemas"
)

// Role identifies one specialist agent.
type Role int

const (
	RolePlanner Role = iota + 1
	RoleCoder
	RoleTester
	RoleDocumenter
	RoleDeployer
	RoleEvolver
	RoleTriager
)

// CoreRoles are the agents a full roster always contains.
var CoreRoles = []Role{RolePlanner, RoleCoder, RoleTester, RoleDocumenter, RoleDeployer, RoleEvolver}

var roleNames = map[Role]string{
	RolePlanner:    "planner",
	RoleCoder:      "coder",
	RoleTester:     "tester",
	RoleDocumenter: "documenter",
	RoleDeployer:   "deployer",
	RoleEvolver:    "evolver",
	RoleTriager:    "triager",
}

// String returns the configuration key of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps a configuration key such as "planner" to its Role.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown agent role %q", s)
}

// RoleDescriptor is the resolved persona of one agent.
type RoleDescriptor struct {
	Role           Role
	Title          string
	Goal           string
	Backstory      string
	PromptTemplate string
	MaxIter        int
	// Options are sent with every completion call made for this agent.
	Options schemas.GenerationOptions
}

// SystemPrompt renders the persona as the system message of a completion call.
func (d RoleDescriptor) SystemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.\n", d.Title)
	if d.Backstory != "" {
		fmt.Fprintf(&sb, "Background: %s.\n", strings.TrimSuffix(d.Backstory, "."))
	}
	if d.Goal != "" {
		fmt.Fprintf(&sb, "Your goal: %s.\n", strings.TrimSuffix(d.Goal, "."))
	}
	sb.WriteString("Work independently and do not delegate.")
	return sb.String()
}
