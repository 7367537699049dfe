package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/engine"
	"github.com/xkilldash9x/aiseed/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	expectPlan      = "Detailed implementation plan in structured format with task breakdown, file impact assessment, and testing strategy"
	expectCode      = "Complete code implementation with proper error handling, type hints, and documentation"
	expectTests     = "Comprehensive test suite with unit tests, integration tests, and edge case coverage"
	expectDocs      = "Updated documentation including API docs, user guides, and developer documentation"
	expectDeploy    = "Deployment configuration updates and deployment scripts if needed"
	expectAnalysis  = "Analysis of evolution cycle with specific recommendations for system improvements"
	expectTriage    = "Markdown report summarizing failure, with root causes and proposed fixes"
	noStepOutput    = "Task completed but no detailed output available"
	triageFallback  = "Failed to generate triage report. See logs excerpt above."
	triageRawLimit  = 5000
	defaultSummary  = 1000
	fileChangesHint = "If you change files, list them as a JSON array of objects with \"file\" and \"description\" keys."
)

// ErrAgentUnavailable is returned when a step needs an agent the roster lacks.
var ErrAgentUnavailable = errors.New("agent not available")

// ErrNoCompletionClient is returned when the roster was built without an LLM client.
var ErrNoCompletionClient = errors.New("no completion client configured")

// InsightRecorder keeps the evolver's retrospective analysis.
type InsightRecorder interface {
	Record(ctx context.Context, insights string) error
}

// LogInsightRecorder only logs insights; nothing is persisted.
type LogInsightRecorder struct {
	Logger *zap.Logger
}

func (r LogInsightRecorder) Record(_ context.Context, insights string) error {
	r.Logger.Info("Evolution insights stored for future improvements.", zap.Int("chars", len(insights)))
	return nil
}

// Coordinator runs agent steps as completion calls on a worker pool.
type Coordinator struct {
	roster   *Roster
	pool     *engine.Pool
	cfg      config.WorkflowConfig
	logger   *zap.Logger
	insights InsightRecorder
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithInsightRecorder replaces the default logging recorder.
func WithInsightRecorder(r InsightRecorder) CoordinatorOption {
	return func(c *Coordinator) { c.insights = r }
}

// NewCoordinator wires a coordinator. The pool bounds how many runs are in flight.
func NewCoordinator(roster *Roster, pool *engine.Pool, cfg config.WorkflowConfig, logger *zap.Logger, opts ...CoordinatorOption) (*Coordinator, error) {
	if roster == nil || pool == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize coordinator with nil dependencies")
	}
	logger = logger.Named("crew")
	c := &Coordinator{
		roster:   roster,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
		insights: LogInsightRecorder{Logger: logger},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// step is one agent task in a sequential run. Context lists the indexes of
// earlier steps whose output is passed along.
type step struct {
	name     string
	role     Role
	expected string
	extra    map[string]any
	context  []int
}

const (
	stepPlan = iota
	stepImplement
	stepTest
	stepDocument
	stepDeploy
)

func evolutionSteps() []step {
	implementation := map[string]any{"implementation": "{implementation_task_output}"}
	return []step{
		stepPlan:      {name: "planning", role: RolePlanner, expected: expectPlan},
		stepImplement: {name: "implementation", role: RoleCoder, expected: expectCode, extra: map[string]any{"plan": "{planning_task_output}"}, context: []int{stepPlan}},
		stepTest:      {name: "testing", role: RoleTester, expected: expectTests, extra: implementation, context: []int{stepImplement}},
		stepDocument:  {name: "documentation", role: RoleDocumenter, expected: expectDocs, extra: implementation, context: []int{stepImplement}},
		stepDeploy:    {name: "deployment", role: RoleDeployer, expected: expectDeploy, extra: implementation, context: []int{stepImplement}},
	}
}

// ExecuteEvolutionWorkflow runs plan, implement, test, document and deploy in
// order. It never returns an error; failures are reported through the result.
func (c *Coordinator) ExecuteEvolutionWorkflow(ctx context.Context, in schemas.WorkflowInput) schemas.WorkflowResult {
	c.logger.Info("Starting evolution workflow.", zap.Int("issue", in.IssueNumber))

	vars, err := workflowVars(in)
	if err != nil {
		return c.failed(err)
	}

	steps := evolutionSteps()
	future, err := engine.Submit(ctx, c.pool, "evolution_workflow", func(ctx context.Context) ([]string, error) {
		return c.runSteps(ctx, steps, vars)
	})
	if err != nil {
		return c.failed(err)
	}
	outputs, err := future.Await(ctx)
	if err != nil {
		return c.failed(err)
	}

	result := c.buildResult(outputs)
	c.logger.Info("Evolution workflow completed successfully.", zap.Int("file_changes", len(result.FileChanges)))
	return result
}

func (c *Coordinator) failed(err error) schemas.WorkflowResult {
	c.logger.Error("Evolution workflow failed.", zap.Error(err))
	return schemas.WorkflowResult{
		Success:               false,
		Error:                 err.Error(),
		PlanningSummary:       "Workflow failed during execution",
		ImplementationSummary: "No implementation completed",
		TestingSummary:        "No tests created",
		DocumentationSummary:  "No documentation updated",
		DeploymentNotes:       "Deployment not configured",
		FileChanges:           []schemas.FileChange{},
	}
}

func (c *Coordinator) runSteps(ctx context.Context, steps []step, vars map[string]any) ([]string, error) {
	client := c.roster.Client()
	if client == nil {
		return nil, ErrNoCompletionClient
	}

	outputs := make([]string, len(steps))
	for i, s := range steps {
		agent, ok := c.roster.Get(s.role)
		if !ok {
			return nil, fmt.Errorf("%s step: %w: %s", s.name, ErrAgentUnavailable, s.role)
		}

		stepVars := vars
		if len(s.extra) > 0 {
			stepVars = make(map[string]any, len(vars)+len(s.extra))
			for k, v := range vars {
				stepVars[k] = v
			}
			for k, v := range s.extra {
				stepVars[k] = v
			}
		}

		upstream := make([]upstreamOutput, 0, len(s.context))
		for _, j := range s.context {
			upstream = append(upstream, upstreamOutput{name: steps[j].name, text: outputs[j]})
		}

		logger := c.logger.With(zap.String("step", s.name), zap.Stringer("role", s.role))
		logger.Info("Running workflow step.")
		out, err := client.Generate(ctx, schemas.GenerationRequest{
			SystemPrompt: agent.SystemPrompt(),
			UserPrompt:   taskPrompt(RenderPrompt(logger, agent.PromptTemplate, stepVars), s.expected, upstream, s.role == RoleCoder),
			Options:      agent.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("%s step: %w", s.name, err)
		}
		logger.Debug("Workflow step finished.", zap.Int("output_chars", len(out)))
		outputs[i] = out
	}
	return outputs, nil
}

type upstreamOutput struct {
	name string
	text string
}

func taskPrompt(description, expected string, upstream []upstreamOutput, wantFiles bool) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n\nExpected output: ")
	sb.WriteString(expected)
	if wantFiles {
		sb.WriteString("\n")
		sb.WriteString(fileChangesHint)
	}
	for _, u := range upstream {
		fmt.Fprintf(&sb, "\n\n## Output of the %s step\n%s", u.name, u.text)
	}
	return sb.String()
}

func (c *Coordinator) buildResult(outputs []string) schemas.WorkflowResult {
	limit := c.cfg.SummaryChars
	if limit <= 0 {
		limit = defaultSummary
	}
	final := outputs[len(outputs)-1]

	summary := func(i int) string {
		text := outputs[i]
		if c.cfg.AggregateSummaries {
			text = final
		}
		if strings.TrimSpace(text) == "" {
			return noStepOutput
		}
		return llmutil.Truncate(text, limit)
	}

	return schemas.WorkflowResult{
		Success:               true,
		PlanningSummary:       summary(stepPlan),
		ImplementationSummary: summary(stepImplement),
		TestingSummary:        summary(stepTest),
		DocumentationSummary:  summary(stepDocument),
		DeploymentNotes:       summary(stepDeploy),
		FileChanges:           ExtractFileChanges(outputs),
		RawResult:             final,
	}
}

// ExtractFileChanges returns the first JSON file-change list found in the
// step outputs, or a generic placeholder list when none parses.
func ExtractFileChanges(outputs []string) []schemas.FileChange {
	for _, out := range outputs {
		if !strings.Contains(out, "\"file\"") {
			continue
		}
		parsed, err := llmutil.ParseJSONResponse[[]schemas.FileChange](out)
		if err != nil {
			continue
		}
		changes := make([]schemas.FileChange, 0, len(*parsed))
		for _, fc := range *parsed {
			if strings.TrimSpace(fc.File) != "" {
				changes = append(changes, fc)
			}
		}
		if len(changes) > 0 {
			return changes
		}
	}
	return []schemas.FileChange{
		{File: "src/main.py", Description: "Updated based on evolution request"},
		{File: "tests/", Description: "Added comprehensive test coverage"},
		{File: "docs/", Description: "Updated documentation"},
	}
}

// TriggerEvolutionAnalysis asks the evolver to review a finished cycle and
// hands its analysis to the insight recorder.
func (c *Coordinator) TriggerEvolutionAnalysis(ctx context.Context, record schemas.EvolutionRecord) error {
	c.logger.Info("Triggering evolution analysis for system improvement.")

	vars := map[string]any{}
	for key, v := range map[string]any{
		"original_request": record.Request,
		"workflow_result":  record.Workflow,
		"pr_result":        record.PullRequest,
	} {
		rendered, err := json.MarshalToString(v)
		if err != nil {
			return c.analysisFailed(fmt.Errorf("encode %s: %w", key, err))
		}
		vars[key] = rendered
	}

	steps := []step{{name: "evolution_analysis", role: RoleEvolver, expected: expectAnalysis}}
	future, err := engine.Submit(ctx, c.pool, "evolution_analysis", func(ctx context.Context) ([]string, error) {
		return c.runSteps(ctx, steps, vars)
	})
	if err != nil {
		return c.analysisFailed(err)
	}
	outputs, err := future.Await(ctx)
	if err != nil {
		return c.analysisFailed(err)
	}
	if err := c.insights.Record(ctx, outputs[0]); err != nil {
		return c.analysisFailed(fmt.Errorf("record insights: %w", err))
	}
	return nil
}

func (c *Coordinator) analysisFailed(err error) error {
	c.logger.Error("Evolution analysis failed.", zap.Error(err))
	return err
}

// RunTriageReport has the triager turn a log excerpt into a markdown report.
// Without a triager the excerpt itself, truncated, is returned.
func (c *Coordinator) RunTriageReport(ctx context.Context, in schemas.TriageInput) (string, error) {
	if c.roster.Client() == nil || !c.roster.Has(RoleTriager) {
		c.logger.Warn("Triager unavailable (no LLM or agent not configured); returning raw logs excerpt.")
		return llmutil.Truncate(in.LogsExcerpt, triageRawLimit), nil
	}

	repoContext, err := json.MarshalToString(in.RepositoryContext)
	if err != nil {
		return "", fmt.Errorf("encode repository context: %w", err)
	}
	vars := map[string]any{
		"workflow_name":        in.WorkflowName,
		"run_url":              in.RunURL,
		"git_ref":              in.GitRef,
		"commit_sha":           in.CommitSHA,
		"failing_jobs_summary": in.FailingJobsSummary,
		"logs_excerpt":         in.LogsExcerpt,
		"repository_context":   repoContext,
		"tail_lines":           in.TailLines,
	}

	steps := []step{{name: "triage", role: RoleTriager, expected: expectTriage}}
	future, err := engine.Submit(ctx, c.pool, "triage_report", func(ctx context.Context) ([]string, error) {
		return c.runSteps(ctx, steps, vars)
	})
	if err != nil {
		return "", err
	}
	outputs, err := future.Await(ctx)
	if err != nil {
		return "", err
	}
	// A fence around the whole report would render as code in the issue.
	report := llmutil.CleanCodeOutput(outputs[0])
	if report == "" {
		return triageFallback, nil
	}
	return report, nil
}

func workflowVars(in schemas.WorkflowInput) (map[string]any, error) {
	repoContext, err := json.MarshalIndent(in.RepositoryContext, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode repository context: %w", err)
	}
	return map[string]any{
		"issue_number":       in.IssueNumber,
		"issue_title":        in.IssueTitle,
		"issue_body":         in.IssueBody,
		"repository_context": string(repoContext),
		"branch_name":        in.BranchName,
	}, nil
}
