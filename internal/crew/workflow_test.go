package crew

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/engine"
	"github.com/xkilldash9x/aiseed/internal/mocks"
)

type recordingInsights struct {
	got []string
}

func (r *recordingInsights) Record(_ context.Context, insights string) error {
	r.got = append(r.got, insights)
	return nil
}

func newTestCoordinator(t *testing.T, agents map[string]config.AgentConfig, client *mocks.MockLLMClient, mode Mode, cfg config.WorkflowConfig, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	logger := zaptest.NewLogger(t)
	pool, err := engine.NewPool(1, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var roster *Roster
	if client == nil {
		roster = NewRoster(agents, nil, mode)
	} else {
		roster = NewRoster(agents, client, mode)
	}
	c, err := NewCoordinator(roster, pool, cfg, logger, opts...)
	require.NoError(t, err)
	return c
}

func sampleInput() schemas.WorkflowInput {
	return schemas.WorkflowInput{
		IssueNumber: 123,
		IssueTitle:  "Add auth",
		IssueBody:   "Need login",
		BranchName:  "evolution-issue-123",
	}
}

func systemPromptFor(title string) any {
	return mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		return strings.Contains(req.SystemPrompt, title)
	})
}

func TestNewCoordinator_NilDependencies(t *testing.T) {
	_, err := NewCoordinator(nil, nil, config.WorkflowConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestExecuteEvolutionWorkflow_PerStepSummaries(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	agents := map[string]config.AgentConfig{
		"planner": {PromptTemplate: "Plan issue #{issue_number}: {issue_title}"},
		"coder":   {PromptTemplate: "Implement {plan} on {branch_name}"},
	}

	var coderPrompt string
	client.On("Generate", mock.Anything, systemPromptFor("Strategic Planning Agent")).Return("the plan", nil).Once()
	client.On("Generate", mock.Anything, systemPromptFor("Implementation Agent")).Run(func(args mock.Arguments) {
		coderPrompt = args.Get(1).(schemas.GenerationRequest).UserPrompt
	}).Return("the code\n```json\n[{\"file\": \"auth/login.go\", \"description\": \"login handler\"}]\n```", nil).Once()
	client.On("Generate", mock.Anything, systemPromptFor("Quality Assurance Agent")).Return("the tests", nil).Once()
	client.On("Generate", mock.Anything, systemPromptFor("Documentation Agent")).Return(strings.Repeat("d", 1500), nil).Once()
	client.On("Generate", mock.Anything, systemPromptFor("Deployment Agent")).Return("the deploy notes", nil).Once()

	c := newTestCoordinator(t, agents, client, ModeFull, config.WorkflowConfig{SummaryChars: 1000})
	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "the plan", res.PlanningSummary)
	assert.Equal(t, "the tests", res.TestingSummary)
	assert.Len(t, res.DocumentationSummary, 1000)
	assert.Equal(t, "the deploy notes", res.DeploymentNotes)
	assert.Equal(t, "the deploy notes", res.RawResult)
	assert.Equal(t, []schemas.FileChange{{File: "auth/login.go", Description: "login handler"}}, res.FileChanges)

	assert.Contains(t, coderPrompt, "Implement {planning_task_output} on evolution-issue-123")
	assert.Contains(t, coderPrompt, "## Output of the planning step\nthe plan")
	assert.Contains(t, coderPrompt, expectCode)
	client.AssertExpectations(t)
}

func TestExecuteEvolutionWorkflow_AgentOptionsReachClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	var coderOpts, plannerOpts schemas.GenerationOptions
	client.On("Generate", mock.Anything, systemPromptFor("Implementation Agent")).Run(func(args mock.Arguments) {
		coderOpts = args.Get(1).(schemas.GenerationRequest).Options
	}).Return("[{\"file\": \"main.go\", \"description\": \"entry\"}]", nil).Once()
	client.On("Generate", mock.Anything, systemPromptFor("Strategic Planning Agent")).Run(func(args mock.Arguments) {
		plannerOpts = args.Get(1).(schemas.GenerationRequest).Options
	}).Return("plan", nil).Once()
	client.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Times(3)

	c := newTestCoordinator(t, map[string]config.AgentConfig{
		"coder": {Temperature: 0.2, MaxTokens: 8000, JSONOutput: true},
	}, client, ModeFull, config.WorkflowConfig{})
	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.GenerationOptions{Temperature: 0.2, MaxTokens: 8000, ForceJSONFormat: true}, coderOpts)
	assert.Zero(t, plannerOpts)
	assert.Equal(t, []schemas.FileChange{{File: "main.go", Description: "entry"}}, res.FileChanges)
}

func TestExecuteEvolutionWorkflow_AggregateSummaries(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	client.On("Generate", mock.Anything, mock.Anything).Return("step output", nil).Times(4)
	client.On("Generate", mock.Anything, mock.Anything).Return("final output", nil).Once()

	c := newTestCoordinator(t, nil, client, ModeFull, config.WorkflowConfig{SummaryChars: 5, AggregateSummaries: true})
	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())

	require.True(t, res.Success)
	for _, s := range []string{res.PlanningSummary, res.ImplementationSummary, res.TestingSummary, res.DocumentationSummary, res.DeploymentNotes} {
		assert.Equal(t, "final", s)
	}
	assert.Equal(t, "final output", res.RawResult)
	assert.Len(t, res.FileChanges, 3, "placeholder list when no JSON is reported")
}

func TestExecuteEvolutionWorkflow_EmptyStepOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	client.On("Generate", mock.Anything, mock.Anything).Return("", nil)

	c := newTestCoordinator(t, nil, client, ModeFull, config.WorkflowConfig{})
	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())

	require.True(t, res.Success)
	assert.Equal(t, noStepOutput, res.PlanningSummary)
}

func TestExecuteEvolutionWorkflow_FailureResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	client.On("Generate", mock.Anything, systemPromptFor("Strategic Planning Agent")).Return("plan", nil).Once()
	client.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("rate limited")).Once()

	core, logs := observer.New(zap.ErrorLevel)
	pool, err := engine.NewPool(1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer pool.Close()
	c, err := NewCoordinator(NewRoster(nil, client, ModeFull), pool, config.WorkflowConfig{}, zap.New(core))
	require.NoError(t, err)

	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "implementation step: rate limited")
	assert.Equal(t, "Workflow failed during execution", res.PlanningSummary)
	assert.Equal(t, "No implementation completed", res.ImplementationSummary)
	assert.Equal(t, "No tests created", res.TestingSummary)
	assert.Equal(t, "No documentation updated", res.DocumentationSummary)
	assert.Equal(t, "Deployment not configured", res.DeploymentNotes)
	assert.Empty(t, res.FileChanges)
	assert.Equal(t, 1, logs.FilterMessage("Evolution workflow failed.").Len())
}

func TestExecuteEvolutionWorkflow_MissingAgentAndClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCoordinator(t, nil, nil, ModeFull, config.WorkflowConfig{})
	res := c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, ErrNoCompletionClient.Error())

	client := new(mocks.MockLLMClient)
	c = newTestCoordinator(t, map[string]config.AgentConfig{"triager": {}}, client, ModeTriage, config.WorkflowConfig{})
	res = c.ExecuteEvolutionWorkflow(context.Background(), sampleInput())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "agent not available: planner")
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestExecuteEvolutionWorkflow_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	c := newTestCoordinator(t, nil, client, ModeFull, config.WorkflowConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.ExecuteEvolutionWorkflow(ctx, sampleInput())
	assert.False(t, res.Success)
}

func TestExtractFileChanges(t *testing.T) {
	got := ExtractFileChanges([]string{
		"no json here",
		"Changes:\n```json\n[{\"file\": \"\", \"description\": \"blank\"}, {\"file\": \"a.go\", \"description\": \"new\"}]\n```",
	})
	assert.Equal(t, []schemas.FileChange{{File: "a.go", Description: "new"}}, got)

	placeholder := ExtractFileChanges([]string{"[1, 2, 3]", "{\"file\": broken"})
	require.Len(t, placeholder, 3)
	assert.Equal(t, "src/main.py", placeholder[0].File)
	assert.Equal(t, "tests/", placeholder[1].File)
	assert.Equal(t, "docs/", placeholder[2].File)
}

func TestTriggerEvolutionAnalysis(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	var prompt string
	client.On("Generate", mock.Anything, systemPromptFor("System Evolution Agent")).Run(func(args mock.Arguments) {
		prompt = args.Get(1).(schemas.GenerationRequest).UserPrompt
	}).Return("use smaller prompts", nil).Once()

	recorder := &recordingInsights{}
	c := newTestCoordinator(t, map[string]config.AgentConfig{
		"evolver": {PromptTemplate: "Review {original_request} -> {pr_result}"},
	}, client, ModeFull, config.WorkflowConfig{}, WithInsightRecorder(recorder))

	err := c.TriggerEvolutionAnalysis(context.Background(), schemas.EvolutionRecord{
		Request:     schemas.EvolutionRequest{IssueNumber: 5, Title: "t", BranchName: "b"},
		PullRequest: schemas.PullRequestInfo{Number: 9, URL: "https://example.test/pr/9"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"use smaller prompts"}, recorder.got)
	assert.Contains(t, prompt, `"issue_number":5`)
	assert.Contains(t, prompt, `"number":9`)
}

func TestTriggerEvolutionAnalysis_NoEvolver(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := new(mocks.MockLLMClient)
	c := newTestCoordinator(t, map[string]config.AgentConfig{"triager": {}}, client, ModeTriage, config.WorkflowConfig{})
	err := c.TriggerEvolutionAnalysis(context.Background(), schemas.EvolutionRecord{})
	assert.ErrorIs(t, err, ErrAgentUnavailable)
}

func TestRunTriageReport(t *testing.T) {
	defer goleak.VerifyNone(t)

	in := schemas.TriageInput{WorkflowName: "CI", LogsExcerpt: strings.Repeat("x", 6000), TailLines: 200}

	t.Run("fallback without triager", func(t *testing.T) {
		client := new(mocks.MockLLMClient)
		c := newTestCoordinator(t, nil, client, ModeTriage, config.WorkflowConfig{})
		out, err := c.RunTriageReport(context.Background(), in)
		require.NoError(t, err)
		assert.Len(t, out, triageRawLimit)
	})

	t.Run("fallback without client", func(t *testing.T) {
		c := newTestCoordinator(t, map[string]config.AgentConfig{"triager": {}}, nil, ModeTriage, config.WorkflowConfig{})
		out, err := c.RunTriageReport(context.Background(), schemas.TriageInput{LogsExcerpt: "short"})
		require.NoError(t, err)
		assert.Equal(t, "short", out)
	})

	t.Run("report from triager", func(t *testing.T) {
		client := new(mocks.MockLLMClient)
		client.On("Generate", mock.Anything, mock.MatchedBy(func(req schemas.GenerationRequest) bool {
			return strings.Contains(req.UserPrompt, "Workflow CI failed after 200 lines")
		})).Return("## Root cause\nflaky test", nil).Once()
		c := newTestCoordinator(t, map[string]config.AgentConfig{
			"triager": {PromptTemplate: "Workflow {workflow_name} failed after {tail_lines} lines"},
		}, client, ModeTriage, config.WorkflowConfig{})

		out, err := c.RunTriageReport(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "## Root cause\nflaky test", out)
		client.AssertExpectations(t)
	})

	t.Run("fenced report is unwrapped", func(t *testing.T) {
		client := new(mocks.MockLLMClient)
		client.On("Generate", mock.Anything, mock.Anything).Return("```markdown\n## Root cause\nOOM\n```", nil).Once()
		c := newTestCoordinator(t, map[string]config.AgentConfig{"triager": {}}, client, ModeTriage, config.WorkflowConfig{})

		out, err := c.RunTriageReport(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "## Root cause\nOOM", out)
	})

	t.Run("empty report", func(t *testing.T) {
		client := new(mocks.MockLLMClient)
		client.On("Generate", mock.Anything, mock.Anything).Return("  ", nil).Once()
		c := newTestCoordinator(t, map[string]config.AgentConfig{"triager": {}}, client, ModeTriage, config.WorkflowConfig{})

		out, err := c.RunTriageReport(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, triageFallback, out)
	})
}
