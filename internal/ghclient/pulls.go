package ghclient

import (
	"context"
	"net/http"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
)

// NewPullRequest is the input for CreatePullRequest.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequest is the created pull request.
type PullRequest struct {
	Number int
	URL    string
	Raw    *github.PullRequest
}

// CreatePullRequest opens a pull request. Only a 201 counts as success.
func (c *Client) CreatePullRequest(ctx context.Context, in NewPullRequest) (PullRequest, error) {
	base := in.Base
	if base == "" {
		base = c.baseBranch
	}

	pr, resp, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(in.Title),
		Head:  github.String(in.Head),
		Base:  github.String(base),
		Body:  github.String(in.Body),
	})
	if err != nil {
		return PullRequest{}, c.fail("create pull request", resp, err)
	}
	if resp.StatusCode != http.StatusCreated {
		re := unexpectedStatus("create pull request", resp, http.StatusCreated)
		c.logFailure(re)
		return PullRequest{}, re
	}

	c.logger.Info("Created pull request.", zap.Int("number", pr.GetNumber()), zap.String("url", pr.GetHTMLURL()))
	return PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL(), Raw: pr}, nil
}
