package schemas

import (
	"fmt"
	"strings"
	"time"
)

// EvolutionRequest is one request to evolve the repository in response to an issue.
// It is built once from command-line input and only read afterwards.
type EvolutionRequest struct {
	IssueNumber int      `json:"issue_number"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Repository  string   `json:"repository"`
	BranchName  string   `json:"branch_name"`
	Labels      []string `json:"labels,omitempty"`
}

// Validate checks the fields every evolution cycle depends on.
func (r EvolutionRequest) Validate() error {
	if r.IssueNumber <= 0 {
		return fmt.Errorf("issue number must be positive, got %d", r.IssueNumber)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("issue title is required")
	}
	if strings.TrimSpace(r.BranchName) == "" {
		return fmt.Errorf("branch name is required")
	}
	return nil
}

// TreeEntry is one path in a recursive repository tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int    `json:"size,omitempty"`
}

// RepositoryStructure is the tree of the base branch plus a short textual summary.
type RepositoryStructure struct {
	Tree    []TreeEntry `json:"tree"`
	Summary string      `json:"summary"`
}

// CommitInfo is the abbreviated view of one commit used in prompts.
type CommitInfo struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// RepositoryContext is the snapshot of the repository fetched once per run
// and rendered into prompts.
type RepositoryContext struct {
	Structure     RepositoryStructure `json:"structure"`
	KeyFiles      map[string]string   `json:"key_files"`
	RecentCommits []CommitInfo        `json:"recent_changes"`
	TestFiles     []string            `json:"existing_tests"`
	DocFiles      []string            `json:"documentation"`
}

// FileChange is one file the workflow reports as touched.
type FileChange struct {
	File        string `json:"file"`
	Description string `json:"description"`
}

// WorkflowInput is what the coordinator needs to run one evolution workflow.
type WorkflowInput struct {
	IssueNumber       int               `json:"issue_number"`
	IssueTitle        string            `json:"issue_title"`
	IssueBody         string            `json:"issue_body"`
	RepositoryContext RepositoryContext `json:"repository_context"`
	BranchName        string            `json:"branch_name"`
}

// WorkflowResult is the outcome of one evolution workflow. When Success is
// false, Error carries the cause and the summaries hold fixed placeholders.
type WorkflowResult struct {
	Success               bool         `json:"success"`
	Error                 string       `json:"error,omitempty"`
	PlanningSummary       string       `json:"planning_summary"`
	ImplementationSummary string       `json:"implementation_summary"`
	TestingSummary        string       `json:"testing_summary"`
	DocumentationSummary  string       `json:"documentation_summary"`
	DeploymentNotes       string       `json:"deployment_notes"`
	FileChanges           []FileChange `json:"file_changes"`
	RawResult             string       `json:"full_result,omitempty"`
}

// TriageInput is the context handed to the triage agent.
type TriageInput struct {
	WorkflowName       string            `json:"workflow_name"`
	RunURL             string            `json:"run_url"`
	GitRef             string            `json:"git_ref"`
	CommitSHA          string            `json:"commit_sha"`
	FailingJobsSummary string            `json:"failing_jobs_summary"`
	LogsExcerpt        string            `json:"logs_excerpt"`
	RepositoryContext  RepositoryContext `json:"repository_context"`
	TailLines          int               `json:"tail_lines"`
}

// PullRequestInfo identifies an opened pull request.
type PullRequestInfo struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// EvolutionRecord is everything known about a finished cycle, handed to the
// evolver for retrospective analysis.
type EvolutionRecord struct {
	Request     EvolutionRequest `json:"original_request"`
	Workflow    WorkflowResult   `json:"workflow_result"`
	PullRequest PullRequestInfo  `json:"pr_result"`
}
