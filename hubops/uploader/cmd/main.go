// Command upload_model publishes a PyTorch model
// checkpoint to a model hub. It loads the checkpoint,
// generates config.json, model.safetensors, and README.md
// in a scratch directory, then clones the hub repository,
// commits the artifacts, and pushes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/byte4ever/model_uploader/hubops/git"
	"github.com/byte4ever/model_uploader/hubops/git/github"
	"github.com/byte4ever/model_uploader/hubops/git/gitlab"
	"github.com/byte4ever/model_uploader/hubops/git/huggingface"
	"github.com/byte4ever/model_uploader/hubops/uploader"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running upload_model"

	// Checkpoint flags.
	modelPath := flag.String(
		"model_path", "",
		"Path to the PyTorch checkpoint file",
	)
	modelName := flag.String(
		"model_name", "",
		"Display name (defaults to the repo name)",
	)

	// Hub repository flags.
	repoName := flag.String(
		"repo_name", "",
		"Hub repository id (owner/model)",
	)
	hubURL := flag.String(
		"hub_url", huggingface.DefaultEndpoint,
		"Hub base URL",
	)
	branch := flag.String(
		"branch", "main",
		"Branch to push to",
	)
	private := flag.Bool(
		"private", false,
		"Create the repository as private",
	)

	// Execution flags.
	tmpDir := flag.String(
		"tmp_dir", os.TempDir(),
		"Parent directory for the scratch clone",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Generate and commit but skip the push",
	)
	envFile := flag.String(
		"env_file", ".env",
		"Env file to load HF_TOKEN from",
	)

	// Commit author flags.
	gitName := flag.String(
		"git_name", "",
		"Commit author name override",
	)
	gitEmail := flag.String(
		"git_email", "",
		"Commit author email override",
	)

	// Hub platform selection.
	hub := flag.String(
		"hub", "huggingface",
		"Hub platform: huggingface, github, gitlab, "+
			"or none",
	)

	// GitHub-specific flags.
	ghEnterprise := flag.String(
		"github_enterprise_host", "",
		"GitHub Enterprise hostname",
	)
	ghOrg := flag.String(
		"github_org", "",
		"GitHub organisation to create the repo in",
	)

	flag.Parse()

	if *modelPath == "" {
		return fmt.Errorf(
			"%s: -model_path must be set", errCtx,
		)
	}

	if *repoName == "" {
		return fmt.Errorf(
			"%s: -repo_name must be set", errCtx,
		)
	}

	// A missing env file is fine when the token is
	// already in the environment.
	if err := godotenv.Load(*envFile); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(
			"%s: env file: %w", errCtx, err,
		)
	}

	token := os.Getenv("HF_TOKEN")

	// HF_ENDPOINT overrides the default hub URL; an
	// explicit -hub_url flag wins over both.
	if ep := os.Getenv("HF_ENDPOINT"); ep != "" &&
		*hubURL == huggingface.DefaultEndpoint {
		*hubURL = strings.TrimSuffix(ep, "/")
	}

	provider, err := newHubProvider(providerFlags{
		hub:          *hub,
		hubURL:       *hubURL,
		repoName:     *repoName,
		token:        token,
		private:      *private,
		ghEnterprise: *ghEnterprise,
		ghOrg:        *ghOrg,
	})
	if err != nil {
		return fmt.Errorf(
			"%s: create provider: %w", errCtx, err,
		)
	}

	cfg := uploader.Config{
		CheckpointPath: *modelPath,
		RepoName:       *repoName,
		ModelName:      *modelName,
		Token:          token,
		HubURL:         *hubURL,
		Branch:         *branch,
		TmpDir:         *tmpDir,
		DryRun:         *dryRun,
		Provider:       provider,
		GitName:        *gitName,
		GitEmail:       *gitEmail,
	}

	if err := uploader.Run(
		context.Background(), &cfg,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// providerFlags bundles platform-specific flag values to
// keep newHubProvider under the 4-argument limit.
type providerFlags struct {
	hub          string
	hubURL       string
	repoName     string
	token        string
	private      bool
	ghEnterprise string
	ghOrg        string
}

// newHubProvider creates a git.HubProvider based on the
// platform name. Pattern: Factory -- selects platform
// implementation at runtime.
func newHubProvider(
	pf providerFlags,
) (git.HubProvider, error) {
	const errCtx = "creating hub provider"

	switch pf.hub {
	case "huggingface":
		p, err := huggingface.NewProvider(
			huggingface.Config{
				Endpoint:    pf.hubURL,
				RepoID:      pf.repoName,
				AccessToken: pf.token,
				Private:     pf.private,
			},
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "github":
		owner, repo, ok := strings.Cut(
			pf.repoName, "/",
		)
		if !ok {
			return nil, fmt.Errorf(
				"%s: repo %q must have the form "+
					"owner/name",
				errCtx, pf.repoName,
			)
		}

		p, err := github.NewProvider(github.Config{
			RepoOwner:      owner,
			Repo:           repo,
			AccessToken:    pf.token,
			EnterpriseHost: pf.ghEnterprise,
			Org:            pf.ghOrg,
			Private:        pf.private,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		p, err := gitlab.NewProvider(gitlab.Config{
			Host:        pf.hubURL,
			Repo:        pf.repoName,
			AccessToken: pf.token,
			Private:     pf.private,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "none":
		return nil, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown hub %q", errCtx, pf.hub,
		)
	}
}
