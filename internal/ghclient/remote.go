package ghclient

import (
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Placeholder owner and name used when nothing else resolves.
const (
	placeholderOwner = "owner"
	placeholderRepo  = "repo"
)

// ResolveRepository picks owner/name from the explicit "owner/name" value,
// then from the origin remote of the git checkout containing dir, and finally
// falls back to a placeholder pair.
func ResolveRepository(explicit, dir string, logger *zap.Logger) (owner, repo string) {
	if o, r, ok := splitRepository(explicit); ok {
		return o, r
	}

	o, r, err := originRepository(dir)
	if err == nil {
		return o, r
	}
	logger.Warn("Could not extract repo info from git; using placeholder.", zap.String("dir", dir), zap.Error(err))
	return placeholderOwner, placeholderRepo
}

func splitRepository(s string) (string, string, bool) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

func originRepository(dir string) (string, string, error) {
	repository, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", err
	}
	remote, err := repository.Remote("origin")
	if err != nil {
		return "", "", err
	}
	for _, u := range remote.Config().URLs {
		if o, r, ok := parseRemoteURL(u); ok {
			return o, r, nil
		}
	}
	return "", "", git.ErrRemoteNotFound
}

// parseRemoteURL understands https, ssh:// and scp-style (git@host:owner/repo) remotes.
func parseRemoteURL(raw string) (string, string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}

	var path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", false
		}
		path = u.Path
	} else if at := strings.Index(raw, ":"); at != -1 {
		path = raw[at+1:]
	} else {
		return "", "", false
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	owner, repo := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
