// Package ghclient wraps the GitHub REST API operations used by an evolution
// cycle and by failure triage. Every operation returns a *RemoteError on
// failure and logs it; nothing is retried.
package ghclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/internal/config"
)

const defaultTimeout = 30 * time.Second

// Client is an authenticated GitHub client bound to one repository.
type Client struct {
	gh         *github.Client
	owner      string
	repo       string
	baseBranch string
	logger     *zap.Logger
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
	repoDir    string
}

// WithHTTPClient replaces the underlying HTTP client. The rate limiter is not applied.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRepoDir sets the directory searched for a git checkout when no explicit
// repository is configured. Defaults to the working directory.
func WithRepoDir(dir string) Option {
	return func(o *options) { o.repoDir = dir }
}

// New builds a client from cfg. It fails only when the token is missing or the API URL is malformed.
func New(cfg config.GitHubConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	o := options{repoDir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.Named("github")

	httpClient := o.httpClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: newRateLimitedTransport(http.DefaultTransport, cfg.RequestsPerSecond),
		}
	}

	gh := github.NewClient(httpClient).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github.api_url %q: %w", cfg.APIURL, err)
		}
		gh.BaseURL = base
	}

	owner, repo := ResolveRepository(cfg.Repository, o.repoDir, logger)
	base := cfg.BaseBranch
	if base == "" {
		base = "main"
	}

	logger.Info("GitHub client ready.", zap.String("repository", owner+"/"+repo), zap.String("base_branch", base))
	return &Client{gh: gh, owner: owner, repo: repo, baseBranch: base, logger: logger}, nil
}

// Repository returns the resolved owner/name pair.
func (c *Client) Repository() string { return c.owner + "/" + c.repo }

// BaseBranch returns the branch pull requests target.
func (c *Client) BaseBranch() string { return c.baseBranch }

// fail logs a failed call and converts it to a *RemoteError.
func (c *Client) fail(op string, resp *github.Response, err error) *RemoteError {
	re := newRemoteError(op, resp, err)
	c.logFailure(re)
	return re
}

func (c *Client) logFailure(re *RemoteError) {
	fields := []zap.Field{zap.String("op", re.Op), zap.Stringer("kind", re.Kind)}
	if re.Kind == KindStatus {
		fields = append(fields, zap.Int("status", re.Status), zap.String("body", re.Body))
	}
	if re.Err != nil {
		fields = append(fields, zap.Error(re.Err))
	}
	c.logger.Error("GitHub API call failed.", fields...)
}
