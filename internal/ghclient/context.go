package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/llmutil"
)

// KeyFiles is the allow-list of top-level files read for prompt context.
var KeyFiles = []string{"README.md", "go.mod", "requirements.txt", "pyproject.toml", "setup.py"}

const keyFileMaxChars = 2000

// RepositoryStructure fetches the recursive tree of the base branch. On
// failure the returned structure still carries a diagnostic summary.
func (c *Client) RepositoryStructure(ctx context.Context) (schemas.RepositoryStructure, error) {
	tree, resp, err := c.gh.Git.GetTree(ctx, c.owner, c.repo, c.baseBranch, true)
	if err != nil {
		re := c.fail("get repository structure", resp, err)
		summary := "Could not retrieve structure"
		if re.Kind == KindTransport {
			summary = fmt.Sprintf("Error: %v", err)
		}
		return schemas.RepositoryStructure{Tree: []schemas.TreeEntry{}, Summary: summary}, re
	}

	entries := make([]schemas.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, schemas.TreeEntry{Path: e.GetPath(), Type: e.GetType(), Size: e.GetSize()})
	}
	return schemas.RepositoryStructure{Tree: entries, Summary: SummarizeTree(entries)}, nil
}

// SummarizeTree renders the directory and file-type overview used in prompts.
func SummarizeTree(tree []schemas.TreeEntry) string {
	folders := map[string]struct{}{}
	fileTypes := map[string]int{}

	for _, item := range tree {
		switch item.Type {
		case "tree":
			folders[strings.SplitN(item.Path, "/", 2)[0]] = struct{}{}
		case "blob":
			if ext := strings.TrimPrefix(path.Ext(item.Path), "."); ext != "" {
				fileTypes[ext]++
			}
		}
	}

	dirs := make([]string, 0, len(folders))
	for d := range folders {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	exts := make([]string, 0, len(fileTypes))
	for e := range fileTypes {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	counts := make([]string, 0, len(exts))
	for _, e := range exts {
		counts = append(counts, fmt.Sprintf("%s(%d)", e, fileTypes[e]))
	}

	return fmt.Sprintf("Repository has %d main directories: %s\nFile types: %s",
		len(dirs), strings.Join(dirs, ", "), strings.Join(counts, ", "))
}

// KeyFileContents reads each allow-listed file from the base branch,
// truncated to 2000 characters. Missing files are skipped.
func (c *Client) KeyFileContents(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(KeyFiles))
	for _, name := range KeyFiles {
		content, err := c.fileContent(ctx, name, c.baseBranch)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			// Transport failures stop the scan; later files would fail the same way.
			var re *RemoteError
			if errors.As(err, &re) && re.Kind == KindTransport {
				return out, err
			}
			continue
		}
		out[name] = llmutil.Truncate(content, keyFileMaxChars)
	}
	return out, nil
}

func (c *Client) fileContent(ctx context.Context, name, ref string) (string, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, name, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		re := newRemoteError("get file "+name, resp, err)
		if re.Kind == KindStatus && re.Status == http.StatusNotFound {
			c.logger.Debug("Key file not present.", zap.String("path", name))
			return "", re
		}
		c.logFailure(re)
		return "", re
	}
	if file == nil {
		return "", &RemoteError{Op: "get file " + name, Kind: KindStatus, Status: http.StatusNotFound, Body: "path is a directory"}
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return content, nil
}

// RecentCommits lists the n most recent commits on the base branch.
func (c *Client) RecentCommits(ctx context.Context, n int) ([]schemas.CommitInfo, error) {
	if n <= 0 {
		n = 10
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
		SHA:         c.baseBranch,
		ListOptions: github.ListOptions{PerPage: n},
	})
	if err != nil {
		return []schemas.CommitInfo{}, c.fail("list recent commits", resp, err)
	}

	out := make([]schemas.CommitInfo, 0, len(commits))
	for _, rc := range commits {
		sha := rc.GetSHA()
		if len(sha) > 8 {
			sha = sha[:8]
		}
		message := rc.GetCommit().GetMessage()
		if i := strings.IndexByte(message, '\n'); i != -1 {
			message = message[:i]
		}
		author := rc.GetCommit().GetAuthor()
		out = append(out, schemas.CommitInfo{
			SHA:     sha,
			Message: message,
			Author:  author.GetName(),
			Date:    author.GetDate().Time,
		})
	}
	return out, nil
}

// FilterTestFiles keeps tree paths that look like test sources.
func FilterTestFiles(s schemas.RepositoryStructure) []string {
	var out []string
	for _, item := range s.Tree {
		p := item.Path
		if strings.Contains(strings.ToLower(p), "test") && (strings.HasSuffix(p, ".py") || strings.HasSuffix(p, ".go")) {
			out = append(out, p)
		}
	}
	return out
}

// FilterDocFiles keeps tree paths that look like documentation.
func FilterDocFiles(s schemas.RepositoryStructure) []string {
	var out []string
	for _, item := range s.Tree {
		lower := strings.ToLower(item.Path)
		if strings.Contains(lower, "doc") || strings.Contains(lower, "readme") || strings.Contains(lower, ".md") {
			out = append(out, item.Path)
		}
	}
	return out
}
