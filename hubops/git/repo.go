package git

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	oe "os/exec"

	"github.com/byte4ever/model_uploader/hubops/exec"
)

// Repo is a local clone of a hub repository. Create with
// Clone, and call Clean when done.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
	// Branch is the checked-out branch.
	Branch string
}

// Clone clones a repository into dir. Pass the full remote
// URL as remote (e.g.
// "https://huggingface.co/owner/model"). When branch is
// empty the remote's default branch is checked out.
//
//nolint:gosec // file paths originate from CLI flags
func Clone(
	remote string,
	dir string,
	branch string,
) (*Repo, error) {
	const errCtx = "cloning repository"

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf(
			"%s: remove dir: %w", errCtx, err,
		)
	}

	remoteName := "origin"

	args := []string{
		"clone",
		"--no-tags",
		"--origin", remoteName,
	}

	if branch != "" {
		args = append(
			args,
			"--single-branch",
			"--branch", branch,
		)
	}

	args = append(args, remote, dir)

	if _, err := exec.Ex("", "git", args...); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return &Repo{
		Dir:        dir,
		RemoteName: remoteName,
		Branch:     branch,
	}, nil
}

// Clean removes the local clone directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// SetIdentity configures the commit author for this clone
// only. Empty values leave the global git config in
// effect.
func (r *Repo) SetIdentity(
	name string,
	email string,
) error {
	const errCtx = "setting git identity"

	if name != "" {
		if _, err := exec.Ex(
			r.Dir, "git",
			"config", "--local", "user.name", name,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if email != "" {
		if _, err := exec.Ex(
			r.Dir, "git",
			"config", "--local", "user.email", email,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// CommitAll stages every change in the working tree and
// commits it. Returns true when changes were committed,
// false when the tree was clean.
func (r *Repo) CommitAll(message string) (bool, error) {
	const errCtx = "committing changes"

	if _, err := exec.Ex(
		r.Dir, "git", "add", ".",
	); err != nil {
		return false, fmt.Errorf(
			"%s: stage: %w", errCtx, err,
		)
	}

	if r.IsClean() {
		return false, nil
	}

	if _, err := exec.Ex(
		r.Dir, "git", "commit", "-a", "-m", message,
	); err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return true, nil
}

// IsClean reports whether the working tree has no
// uncommitted changes.
func (r *Repo) IsClean() bool {
	//nolint:gosec // args are constants
	cmd := oe.CommandContext(
		context.Background(),
		"git", "status", "--porcelain",
	)
	cmd.Dir = r.Dir

	by, err := cmd.CombinedOutput()
	if err != nil {
		slog.Error(
			"failed to check repo status",
			"error", err,
		)

		return false
	}

	return len(by) == 0
}

// Push pushes the checked-out branch to the remote. All
// changes should be committed before calling Push.
func (r *Repo) Push() error {
	const errCtx = "pushing to remote"

	args := []string{"push", r.RemoteName}
	if r.Branch != "" {
		args = append(args, r.Branch)
	}

	if _, err := exec.Ex(
		r.Dir, "git", args...,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// AuthenticatedURL embeds an access token into the
// userinfo part of an HTTPS remote URL. Non-HTTP remotes
// (local paths, ssh) are returned unchanged.
func AuthenticatedURL(
	remote string,
	token string,
) string {
	if token == "" {
		return remote
	}

	u, err := url.Parse(remote)
	if err != nil {
		return remote
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return remote
	}

	u.User = url.UserPassword("oauth", token)

	return u.String()
}

// Redacted strips credentials from a remote URL for
// logging.
func Redacted(remote string) string {
	u, err := url.Parse(remote)
	if err != nil {
		return remote
	}

	if u.User == nil {
		return remote
	}

	u.User = nil

	return u.String()
}
