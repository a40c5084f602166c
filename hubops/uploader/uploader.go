package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/byte4ever/model_uploader/artifact"
	"github.com/byte4ever/model_uploader/checkpoint"
	"github.com/byte4ever/model_uploader/hubops/commitmsg"
	"github.com/byte4ever/model_uploader/hubops/digest"
	"github.com/byte4ever/model_uploader/hubops/git"
)

// ErrMissingToken is returned when no hub access token is
// available.
var ErrMissingToken = errors.New(
	"missing hub access token",
)

// Config carries everything one upload needs.
type Config struct {
	// CheckpointPath is the PyTorch checkpoint file to
	// upload.
	CheckpointPath string
	// RepoName is the hub repository id, owner/name.
	RepoName string
	// ModelName is the display name used in the config
	// and model card. Defaults to the name part of
	// RepoName.
	ModelName string
	// Token authenticates against the hub.
	Token string
	// HubURL is the hub base URL, e.g.
	// "https://huggingface.co".
	HubURL string
	// Branch is the branch to push to. Empty uses the
	// remote default.
	Branch string
	// TmpDir is the parent of the scratch directory.
	// Empty uses the system temp dir.
	TmpDir string
	// DryRun stops short of the final push.
	DryRun bool
	// Provider, when set, ensures the remote repository
	// exists before cloning.
	Provider git.HubProvider
	// GitName and GitEmail override the commit author
	// for the upload clone.
	GitName  string
	GitEmail string
}

// modelName resolves the display name, falling back to the
// name part of the repository id.
func (c *Config) modelName() string {
	if c.ModelName != "" {
		return c.ModelName
	}

	if i := strings.LastIndexByte(
		c.RepoName, '/',
	); i >= 0 {
		return c.RepoName[i+1:]
	}

	return c.RepoName
}

// Run validates the configuration, loads the checkpoint
// and publishes it to the hub.
func Run(ctx context.Context, cfg *Config) error {
	const errCtx = "running upload"

	if cfg.Token == "" {
		return fmt.Errorf(
			"%s: %w", errCtx, ErrMissingToken,
		)
	}

	if _, err := os.Stat(cfg.CheckpointPath); err != nil {
		return fmt.Errorf(
			"%s: checkpoint: %w", errCtx, err,
		)
	}

	ckpt, err := checkpoint.Load(cfg.CheckpointPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"checkpoint loaded",
		"path", cfg.CheckpointPath,
		"tensors", len(ckpt.Tensors),
		"parameters", ckpt.ParameterCount(),
		"wrapped", ckpt.Kind == checkpoint.KindWrapped,
	)

	if err := Publish(ctx, cfg, ckpt); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Publish generates the payload for ckpt and pushes it to
// the hub repository named in cfg. The scratch directory
// is removed on every exit path.
func Publish(
	ctx context.Context,
	cfg *Config,
	ckpt *checkpoint.Checkpoint,
) (retErr error) {
	const errCtx = "publishing model"

	scratch, err := os.MkdirTemp(
		cfg.TmpDir, "model_uploader_*",
	)
	if err != nil {
		return fmt.Errorf(
			"%s: scratch dir: %w", errCtx, err,
		)
	}

	defer func() {
		if err := os.RemoveAll(scratch); err != nil &&
			retErr == nil {
			retErr = fmt.Errorf(
				"%s: cleanup: %w", errCtx, err,
			)
		}
	}()

	payloadDir := filepath.Join(scratch, "payload")

	//nolint:gosec // scratch dir is private to this run
	if err := os.Mkdir(payloadDir, 0o755); err != nil {
		return fmt.Errorf(
			"%s: payload dir: %w", errCtx, err,
		)
	}

	files, err := artifact.WritePayload(
		payloadDir, ckpt,
		cfg.RepoName, cfg.modelName(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.Provider != nil {
		if err := cfg.Provider.EnsureRepo(
			ctx,
		); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	remote := cfg.HubURL + "/" + cfg.RepoName

	repo, err := git.Clone(
		git.AuthenticatedURL(remote, cfg.Token),
		filepath.Join(scratch, "repo"),
		cfg.Branch,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := repo.SetIdentity(
		cfg.GitName, cfg.GitEmail,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, name := range files {
		src := filepath.Join(payloadDir, name)
		dst := filepath.Join(repo.Dir, name)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		same, err := digest.Equal(src, dst)
		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		if !same {
			return fmt.Errorf(
				"%s: artifact %q differs after copy",
				errCtx, name,
			)
		}
	}

	committed, err := repo.CommitAll(
		commitmsg.Generate(cfg.modelName(), files),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !committed {
		slog.Info(
			"repository already up to date",
			"repo", git.Redacted(remote),
		)

		return nil
	}

	if cfg.DryRun {
		slog.Info(
			"dry run, skipping push",
			"repo", git.Redacted(remote),
		)

		return nil
	}

	if err := repo.Push(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"model uploaded",
		"repo", git.Redacted(remote),
		"files", files,
	)

	return nil
}

// copyFile copies src to dst, truncating dst if present.
//
//nolint:gosec // both paths live in the scratch dir
func copyFile(src, dst string) (retErr error) {
	const errCtx = "copying artifact"

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if err := in.Close(); err != nil &&
			retErr == nil {
			retErr = fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if err := out.Close(); err != nil &&
			retErr == nil {
			retErr = fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
