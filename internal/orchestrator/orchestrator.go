// File: internal/orchestrator/orchestrator.go
// Description: Drives one evolution cycle from an issue to a pull request. The
// GitHub client and the workflow coordinator are injected through interfaces.

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/ghclient"
)

// State is a stage of an evolution cycle.
type State int

const (
	StateIdle State = iota
	StateGatheringContext
	StateBranchCreated
	StateWorkflowRunning
	StatePRCreated
	StateWorkflowFailed
	StatePostProcessed
	StateFailureHandled
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGatheringContext:
		return "gathering_context"
	case StateBranchCreated:
		return "branch_created"
	case StateWorkflowRunning:
		return "workflow_running"
	case StatePRCreated:
		return "pr_created"
	case StateWorkflowFailed:
		return "workflow_failed"
	case StatePostProcessed:
		return "post_processed"
	case StateFailureHandled:
		return "failure_handled"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// recentCommitCount is how many commits are included in the prompt context.
const recentCommitCount = 10

// RepositoryClient is the slice of the GitHub client an evolution cycle uses.
type RepositoryClient interface {
	BaseBranch() string
	RepositoryStructure(ctx context.Context) (schemas.RepositoryStructure, error)
	KeyFileContents(ctx context.Context) (map[string]string, error)
	RecentCommits(ctx context.Context, n int) ([]schemas.CommitInfo, error)
	CreateBranch(ctx context.Context, name, base string) error
	CreatePullRequest(ctx context.Context, in ghclient.NewPullRequest) (ghclient.PullRequest, error)
	CommentOnIssue(ctx context.Context, number int, body string) error
}

// Coordinator runs the agent workflow.
type Coordinator interface {
	ExecuteEvolutionWorkflow(ctx context.Context, in schemas.WorkflowInput) schemas.WorkflowResult
	TriggerEvolutionAnalysis(ctx context.Context, record schemas.EvolutionRecord) error
}

// Outcome summarizes a finished cycle. State is the last state reached
// before Done.
type Outcome struct {
	Success bool
	State   State
	// BranchCreated is false when the branch could not be created and the
	// cycle went on against whatever already existed.
	BranchCreated bool
	PullRequest   *ghclient.PullRequest
	Err           error
}

// Orchestrator sequences one evolution cycle. It performs no retries and no
// rollback; a created branch is left in place when a later stage fails.
type Orchestrator struct {
	github      RepositoryClient
	coordinator Coordinator
	logger      *zap.Logger
}

// New creates an Orchestrator.
func New(github RepositoryClient, coordinator Coordinator, logger *zap.Logger) (*Orchestrator, error) {
	if github == nil || coordinator == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{github: github, coordinator: coordinator, logger: logger.Named("orchestrator")}, nil
}

// errWorkflowFailed marks a workflow that reported success=false.
var errWorkflowFailed = errors.New("agent workflow failed")

// ProcessEvolutionRequest runs gather, branch, workflow, pull request and
// post-processing in order. Errors and panics from any stage end the cycle
// with a failure comment on the issue.
func (o *Orchestrator) ProcessEvolutionRequest(ctx context.Context, req schemas.EvolutionRequest) (out Outcome) {
	logger := o.logger.With(zap.Int("issue", req.IssueNumber), zap.String("branch", req.BranchName))
	logger.Info("Starting evolution process.")

	out.State = StateIdle
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during %s: %v", out.State, r)
			logger.Error("Evolution process panicked.", zap.Any("panic", r), zap.Stringer("state", out.State))
			out = o.handleFailure(ctx, logger, req, out, err)
		}
	}()

	out.State = StateGatheringContext
	repoCtx, err := o.gatherRepositoryContext(ctx, logger)
	if err != nil {
		return o.handleFailure(ctx, logger, req, out, err)
	}

	if err := o.github.CreateBranch(ctx, req.BranchName, o.github.BaseBranch()); err != nil {
		// The pull request step reports the real failure if the branch is missing.
		logger.Warn("Branch creation failed; continuing.", zap.Error(err))
	} else {
		out.State = StateBranchCreated
		out.BranchCreated = true
	}

	out.State = StateWorkflowRunning
	logger.Info("Executing agent workflow.")
	result := o.coordinator.ExecuteEvolutionWorkflow(ctx, schemas.WorkflowInput{
		IssueNumber:       req.IssueNumber,
		IssueTitle:        req.Title,
		IssueBody:         req.Body,
		RepositoryContext: repoCtx,
		BranchName:        req.BranchName,
	})
	if !result.Success {
		logger.Error("Agent workflow failed.", zap.String("error", result.Error))
		out.State = StateWorkflowFailed
		out.Err = fmt.Errorf("%w: %s", errWorkflowFailed, result.Error)
		return out
	}

	logger.Info("Creating pull request.")
	pr, err := o.github.CreatePullRequest(ctx, ghclient.NewPullRequest{
		Title: PullRequestTitle(req),
		Body:  PullRequestBody(req, result),
		Head:  req.BranchName,
		Base:  o.github.BaseBranch(),
	})
	if err != nil {
		return o.handleFailure(ctx, logger, req, out, err)
	}
	out.State = StatePRCreated
	out.PullRequest = &pr

	logger.Info("Post-processing evolution results.")
	if err := o.coordinator.TriggerEvolutionAnalysis(ctx, schemas.EvolutionRecord{
		Request:     req,
		Workflow:    result,
		PullRequest: schemas.PullRequestInfo{Number: pr.Number, URL: pr.URL},
	}); err != nil {
		logger.Warn("Evolution analysis did not complete.", zap.Error(err))
	}
	out.State = StatePostProcessed

	logger.Info("Evolution process completed successfully.", zap.Int("pull_request", pr.Number))
	out.Success = true
	return out
}

// gatherRepositoryContext fetches the snapshot rendered into prompts. The
// client returns a usable fallback value alongside every error, so failures
// here are logged and the partial context is used.
func (o *Orchestrator) gatherRepositoryContext(ctx context.Context, logger *zap.Logger) (schemas.RepositoryContext, error) {
	logger.Info("Gathering repository context.")

	var rc schemas.RepositoryContext
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := o.github.RepositoryStructure(gctx)
		if err != nil {
			logger.Warn("Repository structure unavailable.", zap.Error(err))
		}
		rc.Structure = s
		return nil
	})
	g.Go(func() error {
		files, err := o.github.KeyFileContents(gctx)
		if err != nil {
			logger.Warn("Key files unavailable.", zap.Error(err))
		}
		if files == nil {
			files = map[string]string{}
		}
		rc.KeyFiles = files
		return nil
	})
	g.Go(func() error {
		commits, err := o.github.RecentCommits(gctx, recentCommitCount)
		if err != nil {
			logger.Warn("Recent commits unavailable.", zap.Error(err))
		}
		if commits == nil {
			commits = []schemas.CommitInfo{}
		}
		rc.RecentCommits = commits
		return nil
	})
	if err := g.Wait(); err != nil {
		return rc, err
	}
	if err := ctx.Err(); err != nil {
		return rc, fmt.Errorf("gathering repository context: %w", err)
	}

	rc.TestFiles = ghclient.FilterTestFiles(rc.Structure)
	rc.DocFiles = ghclient.FilterDocFiles(rc.Structure)
	return rc, nil
}

func (o *Orchestrator) handleFailure(ctx context.Context, logger *zap.Logger, req schemas.EvolutionRequest, out Outcome, cause error) Outcome {
	logger.Error("Evolution process failed.", zap.Error(cause), zap.Stringer("state", out.State))

	// The run context may already be cancelled; the comment still goes out.
	commentCtx := context.WithoutCancel(ctx)
	if err := o.github.CommentOnIssue(commentCtx, req.IssueNumber, FailureComment(cause.Error())); err != nil {
		logger.Error("Could not report failure on the issue.", zap.Error(err))
	}

	out.Success = false
	out.Err = cause
	out.State = StateFailureHandled
	return out
}
