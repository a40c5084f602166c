package git_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/model_uploader/hubops/git"
)

func TestHubProviderFunc_delegates(t *testing.T) {
	t.Parallel()

	called := false

	fn := git.HubProviderFunc(
		func(_ context.Context) error {
			called = true

			return nil
		},
	)

	err := fn.EnsureRepo(context.Background())

	require.NoError(t, err)
	assert.True(t, called)
}

func TestHubProviderFunc_propagates_error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")

	fn := git.HubProviderFunc(
		func(_ context.Context) error {
			return wantErr
		},
	)

	err := fn.EnsureRepo(context.Background())

	assert.ErrorIs(t, err, wantErr)
}
