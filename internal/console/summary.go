// Package console renders short human-readable run summaries for the CLI.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/orchestrator"
	"github.com/xkilldash9x/aiseed/internal/triage"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Width(14)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// EvolutionSummary writes the result of one evolution cycle.
func EvolutionSummary(w io.Writer, req schemas.EvolutionRequest, out orchestrator.Outcome) error {
	status := okStyle.Render("SUCCESS")
	if !out.Success {
		status = failStyle.Render("FAILED")
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("Evolution of issue #%d", req.IssueNumber)),
		row("Status", status),
		row("Branch", req.BranchName),
		row("Last stage", out.State.String()),
	}
	if out.PullRequest != nil {
		rows = append(rows, row("Pull request", fmt.Sprintf("#%d %s", out.PullRequest.Number, out.PullRequest.URL)))
	}
	if out.Err != nil {
		rows = append(rows, row("Error", out.Err.Error()))
	}

	_, err := fmt.Fprintln(w, sectionStyle.Render(strings.Join(rows, "\n")))
	return err
}

// TriageSummary writes where a triage report went. When no issue was filed
// the full body follows so the report is not lost.
func TriageSummary(w io.Writer, report triage.Report) error {
	rows := []string{titleStyle.Render(report.Title)}
	if report.Issue != nil {
		action := "created"
		if report.Issue.Updated {
			action = "updated"
		}
		rows = append(rows, row("Issue", fmt.Sprintf("#%d (%s) %s", report.Issue.Number, action, report.Issue.URL)))
	} else {
		rows = append(rows, row("Issue", failStyle.Render("not filed")))
	}
	if len(report.Labels) > 0 {
		rows = append(rows, row("Labels", strings.Join(report.Labels, ", ")))
	}

	if _, err := fmt.Fprintln(w, sectionStyle.Render(strings.Join(rows, "\n"))); err != nil {
		return err
	}
	if report.Issue == nil {
		_, err := fmt.Fprintln(w, report.Body)
		return err
	}
	return nil
}
