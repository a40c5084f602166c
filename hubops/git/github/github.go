package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v68/github"
)

// Config holds the settings needed to create a GitHub
// hub provider.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// Org is the organisation to create the
	// repository in when it is missing. Leave empty
	// to create under the authenticated user.
	Org string
	// Private creates the repository as private when
	// it does not exist yet.
	Private bool
}

// Provider looks up and creates model repositories on
// GitHub.
//
// Pattern: Strategy -- implements git.HubProvider.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
	org       string
	private   bool
}

// NewProvider validates cfg and returns a Provider
// ready to ensure repositories.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
		org:       cfg.Org,
		private:   cfg.Private,
	}, nil
}

// EnsureRepo checks that the repository exists and
// creates it when it does not (HTTP 404 on lookup).
func (p *Provider) EnsureRepo(ctx context.Context) error {
	const errCtx = "ensuring github repository"

	_, resp, err := p.client.Repositories.Get(
		ctx, p.repoOwner, p.repo,
	)
	if err == nil {
		slog.Info(
			"github repository exists",
			"owner", p.repoOwner,
			"repo", p.repo,
		)

		return nil
	}

	if resp == nil ||
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf(
			"%s: lookup: %w", errCtx, err,
		)
	}

	name := p.repo
	private := p.private

	created, resp, err := p.client.Repositories.Create(
		ctx, p.org, &gh.Repository{
			Name:    &name,
			Private: &private,
		},
	)
	if err == nil {
		slog.Info(
			"created github repository",
			"url", created.GetHTMLURL(),
		)

		return nil
	}

	// HTTP 422: repository already exists (raced with
	// another run).
	if resp != nil &&
		resp.StatusCode ==
			http.StatusUnprocessableEntity {
		slog.Info("reusing existing repository")

		return nil
	}

	return fmt.Errorf("%s: create: %w", errCtx, err)
}
