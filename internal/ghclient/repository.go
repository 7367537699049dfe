package ghclient

import (
	"context"
	"net/http"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
)

// CreateBranch points a new branch at the head of base. The branch is not
// removed if a later step fails.
func (c *Client) CreateBranch(ctx context.Context, name, base string) error {
	if base == "" {
		base = c.baseBranch
	}

	ref, resp, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "heads/"+base)
	if err != nil {
		return c.fail("get base branch sha", resp, err)
	}
	if resp.StatusCode != http.StatusOK {
		re := unexpectedStatus("get base branch sha", resp, http.StatusOK)
		c.logFailure(re)
		return re
	}

	_, resp, err = c.gh.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + name),
		Object: &github.GitObject{SHA: ref.GetObject().SHA},
	})
	if err != nil {
		return c.fail("create branch", resp, err)
	}
	if resp.StatusCode != http.StatusCreated {
		re := unexpectedStatus("create branch", resp, http.StatusCreated)
		c.logFailure(re)
		return re
	}

	c.logger.Info("Created branch.", zap.String("branch", name), zap.String("base", base))
	return nil
}

// UpdateFile writes content to path on branch, creating the file when it does
// not exist yet. The API client base64-encodes the content.
func (c *Client) UpdateFile(ctx context.Context, path, content, message, branch string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
		Branch:  github.String(branch),
	}

	existing, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
	case err != nil:
		re := newRemoteError("read file sha", resp, err)
		if !(re.Kind == KindStatus && re.Status == http.StatusNotFound) {
			c.logFailure(re)
			return re
		}
	}

	if opts.SHA != nil {
		_, resp, err = c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts)
	} else {
		_, resp, err = c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts)
	}
	if err != nil {
		return c.fail("update file", resp, err)
	}

	c.logger.Info("Updated file.", zap.String("path", path), zap.String("branch", branch))
	return nil
}
