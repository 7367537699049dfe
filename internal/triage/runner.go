package triage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/ghclient"
	"github.com/xkilldash9x/aiseed/internal/llmutil"
)

const (
	defaultTailLines = 200
	promptExcerptMax = 60000
	bodyExcerptMax   = 120000
	triageCommits    = 10
)

var defaultLabels = []string{"ci-failure", "triage"}

// IssueClient is the slice of the GitHub client the runner uses.
type IssueClient interface {
	RepositoryStructure(ctx context.Context) (schemas.RepositoryStructure, error)
	RecentCommits(ctx context.Context, n int) ([]schemas.CommitInfo, error)
	CreateIssue(ctx context.Context, title, body string, labels []string, dedupeLabel string) (ghclient.Issue, error)
}

// Reporter writes the auto-triage summary from the collected logs.
type Reporter interface {
	RunTriageReport(ctx context.Context, in schemas.TriageInput) (string, error)
}

// Options describe the failed run being triaged.
type Options struct {
	WorkflowName string
	RunURL       string
	GitRef       string
	CommitSHA    string
	LogsRoot     string
	TailLines    int
}

// Report is the issue produced for a failed run. Issue is nil when nothing was filed.
type Report struct {
	Title  string
	Body   string
	Labels []string
	Issue  *ghclient.Issue
}

// Runner builds and files triage issues. Either dependency may be nil: without
// a GitHub client the report is only returned, without a reporter the
// summary comes from HeuristicReport.
type Runner struct {
	github   IssueClient
	reporter Reporter
	cfg      config.FailureReportingConfig
	logger   *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(github IssueClient, reporter Reporter, cfg config.FailureReportingConfig, logger *zap.Logger) *Runner {
	return &Runner{github: github, reporter: reporter, cfg: cfg, logger: logger.Named("triage")}
}

// Run collects the logs, writes the summary and files the issue. The report
// is returned even when filing fails.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	tail := r.tailLines(opts.TailLines)
	root := opts.LogsRoot
	if root == "" {
		root = "."
	}
	jobs, excerpt := CollectLogsExcerpt(root, tail)
	r.logger.Info("Collected failure logs.", zap.String("root", root), zap.Int("tail_lines", tail))

	input := schemas.TriageInput{
		WorkflowName:       opts.WorkflowName,
		RunURL:             opts.RunURL,
		GitRef:             opts.GitRef,
		CommitSHA:          opts.CommitSHA,
		FailingJobsSummary: jobs,
		LogsExcerpt:        llmutil.Truncate(excerpt, promptExcerptMax),
		RepositoryContext:  r.repositoryContext(ctx),
		TailLines:          tail,
	}

	report := Report{
		Title:  IssueTitle(opts.WorkflowName, opts.GitRef, opts.CommitSHA),
		Body:   IssueBody(opts, r.summary(ctx, input), excerpt, tail),
		Labels: r.labels(),
	}

	if r.github == nil {
		r.logger.Warn("GitHub client unavailable; triage issue not filed.")
		return report, nil
	}

	dedupe := ""
	if len(report.Labels) > 0 {
		dedupe = report.Labels[0]
	}
	issue, err := r.github.CreateIssue(ctx, report.Title, report.Body, report.Labels, dedupe)
	if err != nil {
		r.logger.Error("Failed to create triage issue.", zap.Error(err))
		return report, fmt.Errorf("create triage issue: %w", err)
	}
	report.Issue = &issue
	r.logger.Info("Triage issue ready.", zap.Int("issue", issue.Number), zap.Bool("updated", issue.Updated))
	return report, nil
}

func (r *Runner) tailLines(flag int) int {
	switch {
	case flag > 0:
		return flag
	case r.cfg.LogsTailLines > 0:
		return r.cfg.LogsTailLines
	default:
		return defaultTailLines
	}
}

func (r *Runner) labels() []string {
	if r.cfg.IssueLabels == nil {
		return append([]string(nil), defaultLabels...)
	}
	return r.cfg.IssueLabels
}

// repositoryContext is the minimal context given to the triager: the tree and
// recent commits. Failures leave the fields at their fallback values.
func (r *Runner) repositoryContext(ctx context.Context) schemas.RepositoryContext {
	rc := schemas.RepositoryContext{KeyFiles: map[string]string{}, RecentCommits: []schemas.CommitInfo{}}
	if r.github == nil {
		return rc
	}
	s, err := r.github.RepositoryStructure(ctx)
	if err != nil {
		r.logger.Warn("Repository structure unavailable for triage.", zap.Error(err))
	}
	rc.Structure = s
	if commits, err := r.github.RecentCommits(ctx, triageCommits); err == nil {
		rc.RecentCommits = commits
	} else {
		r.logger.Warn("Recent commits unavailable for triage.", zap.Error(err))
	}
	return rc
}

func (r *Runner) summary(ctx context.Context, in schemas.TriageInput) string {
	if r.reporter == nil {
		r.logger.Info("No completion credentials; using heuristic triage.")
		return HeuristicReport(in.LogsExcerpt)
	}
	report, err := r.reporter.RunTriageReport(ctx, in)
	if err != nil {
		r.logger.Warn("Triage report failed; using heuristic triage.", zap.Error(err))
		return HeuristicReport(in.LogsExcerpt)
	}
	return report
}

// IssueTitle is the title of the issue filed for a failed run.
func IssueTitle(workflow, ref, sha string) string {
	if len(sha) > 7 {
		sha = sha[:7]
	}
	return fmt.Sprintf("[CI Failure] %s on %s @ %s", workflow, ref, sha)
}

// IssueBody renders the issue description. The logs excerpt sits in a
// collapsed block fenced with four backticks so fences inside logs survive.
func IssueBody(opts Options, summary, excerpt string, tail int) string {
	return fmt.Sprintf("## CI Failure: %s\n\n"+
		"- Run: %s\n"+
		"- Ref: `%s`\n"+
		"- Commit: `%s`\n\n"+
		"### Auto-Triage Summary\n\n%s\n\n"+
		"<details><summary>Logs Excerpt (last %d lines per file)</summary>\n\n"+
		"````\n%s\n````\n\n"+
		"</details>\n",
		opts.WorkflowName, opts.RunURL, opts.GitRef, opts.CommitSHA,
		summary, tail, llmutil.Truncate(excerpt, bodyExcerptMax))
}
