package digest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/model_uploader/hubops/digest"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	fp := filepath.Join(t.TempDir(), "f")

	err := os.WriteFile(fp, []byte("hello\n"), 0o600)
	require.NoError(t, err)

	got, err := digest.Calculate(fp)
	require.NoError(t, err)

	// sha256 of "hello\n".
	assert.Equal(
		t,
		"5891b5b522d5df086d0ff0b110fbd9d2"+
			"1bb4fc7163af34d08286a2e846f6be03",
		got,
	)
}

func TestCalculate_missing_file(t *testing.T) {
	t.Parallel()

	got, err := digest.Calculate(
		filepath.Join(t.TempDir(), "nope"),
	)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEqual(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fa := filepath.Join(dir, "a")
	fb := filepath.Join(dir, "b")
	fc := filepath.Join(dir, "c")

	require.NoError(
		t, os.WriteFile(fa, []byte("x"), 0o600),
	)
	require.NoError(
		t, os.WriteFile(fb, []byte("x"), 0o600),
	)
	require.NoError(
		t, os.WriteFile(fc, []byte("y"), 0o600),
	)

	same, err := digest.Equal(fa, fb)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = digest.Equal(fa, fc)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestEqual_missing_file(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fa := filepath.Join(dir, "a")

	require.NoError(
		t, os.WriteFile(fa, []byte("x"), 0o600),
	)

	same, err := digest.Equal(
		fa, filepath.Join(dir, "nope"),
	)
	require.NoError(t, err)
	assert.False(t, same)
}
