package ghclient

import (
	"context"
	"net/http"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
)

// Issue is a created or updated issue.
type Issue struct {
	Number  int
	URL     string
	Updated bool // an existing open issue was reused
}

// CommentOnIssue posts body as a new comment on issue number.
func (c *Client) CommentOnIssue(ctx context.Context, number int, body string) error {
	_, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return c.fail("comment on issue", resp, err)
	}
	if resp.StatusCode != http.StatusCreated {
		re := unexpectedStatus("comment on issue", resp, http.StatusCreated)
		c.logFailure(re)
		return re
	}
	c.logger.Info("Commented on issue.", zap.Int("issue", number))
	return nil
}

// CreateIssue opens an issue. When dedupeLabel is set and an open issue
// already carries it, that issue's title and body are replaced and the new
// report is appended as a comment instead.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string, dedupeLabel string) (Issue, error) {
	if dedupeLabel != "" {
		existing, err := c.findOpenIssue(ctx, dedupeLabel)
		if err != nil {
			return Issue{}, err
		}
		if existing != nil {
			return c.refreshIssue(ctx, existing, title, body)
		}
	}

	req := &github.IssueRequest{Title: github.String(title), Body: github.String(body)}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, resp, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return Issue{}, c.fail("create issue", resp, err)
	}

	c.logger.Info("Created issue.", zap.Int("issue", issue.GetNumber()))
	return Issue{Number: issue.GetNumber(), URL: issue.GetHTMLURL()}, nil
}

// findOpenIssue returns the most recently created open issue carrying label, or nil.
func (c *Client) findOpenIssue(ctx context.Context, label string) (*github.Issue, error) {
	issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{label},
		ListOptions: github.ListOptions{PerPage: 30},
	})
	if err != nil {
		return nil, c.fail("list issues", resp, err)
	}
	for _, issue := range issues {
		// The issues endpoint also lists pull requests.
		if issue.IsPullRequest() {
			continue
		}
		return issue, nil
	}
	return nil, nil
}

func (c *Client) refreshIssue(ctx context.Context, issue *github.Issue, title, body string) (Issue, error) {
	number := issue.GetNumber()
	_, resp, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return Issue{}, c.fail("update issue", resp, err)
	}
	if err := c.CommentOnIssue(ctx, number, body); err != nil {
		return Issue{}, err
	}

	c.logger.Info("Updated existing issue instead of opening a duplicate.", zap.Int("issue", number))
	return Issue{Number: number, URL: issue.GetHTMLURL(), Updated: true}, nil
}
