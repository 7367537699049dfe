package orchestrator

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/aiseed/api/schemas"
)

// PullRequestTitle is the title of the pull request opened for req.
func PullRequestTitle(req schemas.EvolutionRequest) string {
	return "[AI Evolution] " + req.Title
}

// PullRequestBody renders the description of the pull request opened for req.
func PullRequestBody(req schemas.EvolutionRequest, res schemas.WorkflowResult) string {
	orDefault := func(s, fallback string) string {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n# AI Evolution: %s\n\n", req.Title)
	fmt.Fprintf(&sb, "## 🎯 Original Request\nResolves #%d\n\n%s\n\n", req.IssueNumber, req.Body)
	sb.WriteString("## 🤖 AI Implementation Summary\n\n")
	fmt.Fprintf(&sb, "### 📋 Planning Phase\n%s\n\n", orDefault(res.PlanningSummary, "No planning summary available"))
	fmt.Fprintf(&sb, "### 💻 Implementation\n%s\n\n", orDefault(res.ImplementationSummary, "No implementation summary available"))
	fmt.Fprintf(&sb, "### 🧪 Testing\n%s\n\n", orDefault(res.TestingSummary, "No testing summary available"))
	fmt.Fprintf(&sb, "### 📚 Documentation Updates\n%s\n\n", orDefault(res.DocumentationSummary, "No documentation summary available"))
	fmt.Fprintf(&sb, "## 🔍 Files Changed\n%s\n\n", formatFileChanges(res.FileChanges))
	sb.WriteString("## ✅ Quality Checks\n" +
		"- [ ] All tests passing\n" +
		"- [ ] Code coverage maintained\n" +
		"- [ ] Documentation updated\n" +
		"- [ ] Security scan passed\n" +
		"- [ ] Performance impact assessed\n\n")
	fmt.Fprintf(&sb, "## 🚀 Deployment Notes\n%s\n\n", orDefault(res.DeploymentNotes, "Standard deployment process"))
	sb.WriteString("---\n*This PR was generated automatically by AI agents. Please review thoroughly before merging.*\n")
	return sb.String()
}

func formatFileChanges(changes []schemas.FileChange) string {
	if len(changes) == 0 {
		return "No file changes reported"
	}
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("- `%s`: %s", c.File, c.Description))
	}
	return strings.Join(lines, "\n")
}

// FailureComment is posted on the issue when a cycle fails.
func FailureComment(errorMessage string) string {
	return "\n🚨 **Evolution Process Failed**\n\n" +
		"The AI agent workflow encountered an error while processing this evolution request.\n\n" +
		"**Error Details:**\n```\n" + errorMessage + "\n```\n\n" +
		"**Next Steps:**\n" +
		"1. Review the error details above\n" +
		"2. Check if the issue description needs clarification\n" +
		"3. Verify that all requirements are clearly specified\n" +
		"4. Re-trigger the evolution by commenting `/retry-evolution`\n\n" +
		"The development team has been notified and will investigate the issue.\n"
}
