package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"
)

// Config holds the settings needed to create a GitLab
// hub provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
	// Private creates the project as private when it
	// does not exist yet.
	Private bool
}

// Provider looks up and creates model repositories on
// GitLab.
//
// Pattern: Strategy -- implements git.HubProvider.
type Provider struct {
	client  *gl.Client
	repo    string
	private bool
}

// NewProvider validates cfg and returns a Provider
// ready to ensure projects.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client:  client,
		repo:    cfg.Repo,
		private: cfg.Private,
	}, nil
}

// EnsureRepo checks that the project exists and creates
// it when it does not (HTTP 404 on lookup).
func (p *Provider) EnsureRepo(
	_ context.Context,
) error {
	const errCtx = "ensuring gitlab project"

	project, resp, err := p.client.Projects.GetProject(
		p.repo, nil,
	)
	if err == nil {
		slog.Info(
			"gitlab project exists",
			"url", project.WebURL,
		)

		return nil
	}

	if resp == nil ||
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf(
			"%s: lookup: %w", errCtx, err,
		)
	}

	visibility := gl.PublicVisibility
	if p.private {
		visibility = gl.PrivateVisibility
	}

	name := projectName(p.repo)

	created, resp, err := p.client.Projects.CreateProject(
		&gl.CreateProjectOptions{
			Name:       &name,
			Visibility: &visibility,
		},
	)
	if err == nil {
		slog.Info(
			"created gitlab project",
			"url", created.WebURL,
		)

		return nil
	}

	// HTTP 409: project already exists (raced with
	// another run).
	if resp != nil &&
		resp.StatusCode == http.StatusConflict {
		slog.Info("reusing existing project")

		return nil
	}

	return fmt.Errorf("%s: create: %w", errCtx, err)
}

// projectName returns the last path segment of a full
// project path.
func projectName(repo string) string {
	parts := strings.Split(repo, "/")

	return parts[len(parts)-1]
}
