// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/ghclient"
)

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate provides a mock function for LLM calls.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Close provides a mock function for releasing the client.
func (m *MockLLMClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// -- GitHub Client Mock --

// MockGitHubClient mocks the subset of *ghclient.Client used by the
// orchestrator and the triage runner.
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) BaseBranch() string {
	return m.Called().String(0)
}

func (m *MockGitHubClient) RepositoryStructure(ctx context.Context) (schemas.RepositoryStructure, error) {
	args := m.Called(ctx)
	return args.Get(0).(schemas.RepositoryStructure), args.Error(1)
}

func (m *MockGitHubClient) KeyFileContents(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockGitHubClient) RecentCommits(ctx context.Context, n int) ([]schemas.CommitInfo, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.CommitInfo), args.Error(1)
}

func (m *MockGitHubClient) CreateBranch(ctx context.Context, name, base string) error {
	return m.Called(ctx, name, base).Error(0)
}

func (m *MockGitHubClient) CreatePullRequest(ctx context.Context, in ghclient.NewPullRequest) (ghclient.PullRequest, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(ghclient.PullRequest), args.Error(1)
}

func (m *MockGitHubClient) CommentOnIssue(ctx context.Context, number int, body string) error {
	return m.Called(ctx, number, body).Error(0)
}

func (m *MockGitHubClient) CreateIssue(ctx context.Context, title, body string, labels []string, dedupeLabel string) (ghclient.Issue, error) {
	args := m.Called(ctx, title, body, labels, dedupeLabel)
	return args.Get(0).(ghclient.Issue), args.Error(1)
}

// -- Coordinator Mock --

// MockCoordinator mocks the workflow coordinator.
type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) ExecuteEvolutionWorkflow(ctx context.Context, in schemas.WorkflowInput) schemas.WorkflowResult {
	args := m.Called(ctx, in)
	return args.Get(0).(schemas.WorkflowResult)
}

func (m *MockCoordinator) TriggerEvolutionAnalysis(ctx context.Context, record schemas.EvolutionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCoordinator) RunTriageReport(ctx context.Context, in schemas.TriageInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}
