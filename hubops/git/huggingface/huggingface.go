package huggingface

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// DefaultEndpoint is the public Hugging Face Hub URL.
const DefaultEndpoint = "https://huggingface.co"

// Config holds the settings needed to create a Hugging
// Face Hub provider.
type Config struct {
	// Endpoint is the hub base URL. Leave empty for
	// huggingface.co.
	Endpoint string
	// RepoID is the full repository id
	// (e.g. "owner/model").
	RepoID string
	// AccessToken is a hub access token used for
	// authentication.
	AccessToken string
	// Private creates the repository as private when
	// it does not exist yet.
	Private bool
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// Provider looks up and creates model repositories on the
// Hugging Face Hub.
//
// Pattern: Strategy -- implements git.HubProvider.
type Provider struct {
	endpoint string
	repoID   string
	token    string
	private  bool
	client   *http.Client
}

// createRepoRequest mirrors the payload of the hub's
// /api/repos/create endpoint.
type createRepoRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Private      bool   `json:"private"`
}

// NewProvider validates cfg and returns a Provider ready
// to ensure repositories.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating huggingface provider"

	if err := ValidateRepoID(cfg.RepoID); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		endpoint: endpoint,
		repoID:   cfg.RepoID,
		token:    cfg.AccessToken,
		private:  cfg.Private,
		client:   client,
	}, nil
}

// EnsureRepo checks that the model repository exists on
// the hub and creates it when it does not.
func (p *Provider) EnsureRepo(ctx context.Context) error {
	const errCtx = "ensuring hub repository"

	exists, err := p.repoExists(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if exists {
		slog.Info(
			"hub repository exists",
			"repo", p.repoID,
		)

		return nil
	}

	if err := p.createRepo(ctx); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// repoExists queries the hub model API for the
// repository.
func (p *Provider) repoExists(
	ctx context.Context,
) (bool, error) {
	url := p.endpoint + "/api/models/" + p.repoID

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, url, nil,
	)
	if err != nil {
		return false, fmt.Errorf(
			"build request: %w", err,
		)
	}

	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf(
			"send request: %w", err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf(
			"unexpected status %d",
			resp.StatusCode,
		)
	}
}

// createRepo creates the model repository. Returns nil on
// 200/201 (created) or 409 (already exists).
func (p *Provider) createRepo(ctx context.Context) error {
	owner, name := splitRepoID(p.repoID)

	payload, err := json.Marshal(&createRepoRequest{
		Type:         "model",
		Name:         name,
		Organization: owner,
		Private:      p.private,
	})
	if err != nil {
		return fmt.Errorf(
			"marshal request: %w", err,
		)
	}

	url := p.endpoint + "/api/repos/create"

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(payload),
	)
	if err != nil {
		return fmt.Errorf(
			"build request: %w", err,
		)
	}

	req.Header.Set(
		"Content-Type",
		"application/json; charset=utf-8",
	)
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf(
			"send request: %w", err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn(
			"cannot read response body",
			"error", err,
		)
	} else {
		slog.Info(
			"hub response",
			"status", resp.Status,
			"body", string(rb),
		)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		slog.Info(
			"hub repository created",
			"repo", p.repoID,
		)

		return nil
	case http.StatusConflict:
		slog.Info("reusing existing hub repository")

		return nil
	default:
		return fmt.Errorf(
			"unexpected status %d",
			resp.StatusCode,
		)
	}
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set(
		"Authorization", "Bearer "+p.token,
	)
	req.Header.Set("Accept", "application/json")
}

// ValidateRepoID checks that id has the "owner/name"
// form used by hub repositories.
func ValidateRepoID(id string) error {
	if id == "" {
		return fmt.Errorf(
			"repo id must not be empty",
		)
	}

	parts := strings.Split(id, "/")
	if len(parts) != 2 ||
		parts[0] == "" || parts[1] == "" {
		return fmt.Errorf(
			"repo id %q must have the form owner/name",
			id,
		)
	}

	return nil
}

// splitRepoID splits "owner/name" into its two parts. The
// id is assumed valid.
func splitRepoID(id string) (string, string) {
	parts := strings.SplitN(id, "/", 2)

	return parts[0], parts[1]
}
