package exec_test

import (
	"testing"

	"github.com/byte4ever/model_uploader/hubops/exec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEx_success(t *testing.T) {
	t.Parallel()

	res, err := exec.Ex("", "echo", "hello")

	require.NoError(t, err)
	assert.Contains(t, res.Output, "hello")
	assert.Equal(t, 0, res.ExitCode)
}

func TestEx_with_dir(t *testing.T) {
	t.Parallel()

	res, err := exec.Ex("/tmp", "pwd")

	require.NoError(t, err)
	assert.Contains(t, res.Output, "/tmp")
}

func TestEx_failure(t *testing.T) {
	t.Parallel()

	res, err := exec.Ex("", "false")

	assert.Error(t, err)
	assert.Equal(t, 1, res.ExitCode)
}

func TestEx_command_not_found(t *testing.T) {
	t.Parallel()

	res, err := exec.Ex("", "no-such-command-xyz")

	assert.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestEx_output_in_error(t *testing.T) {
	t.Parallel()

	_, err := exec.Ex("", "sh", "-c", "echo boom >&2; exit 3")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
