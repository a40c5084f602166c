package git

import "context"

// Pattern: Strategy -- swap hub platform without
// changing the upload logic.

// HubProvider prepares the remote repository on a model
// hosting platform before the push happens.
type HubProvider interface {
	// EnsureRepo verifies that the target repository
	// exists, creating it when the platform and
	// credentials permit.
	EnsureRepo(ctx context.Context) error
}

// HubProviderFunc adapts a plain function to the
// HubProvider interface.
type HubProviderFunc func(ctx context.Context) error

// EnsureRepo delegates to the wrapped function.
func (f HubProviderFunc) EnsureRepo(
	ctx context.Context,
) error {
	return f(ctx)
}
