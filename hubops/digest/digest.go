// Package digest provides SHA256 file digests used to
// verify that copied upload artifacts are byte-identical
// to the generated payload.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// Calculate computes the SHA256 hex digest of the file at
// path. Returns empty string with no error if the file
// does not exist.
func Calculate(path string) (result string, retErr error) {
	const errCtx = "calculating digest"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	ha := sha256.New()

	if _, err := io.Copy(ha, fi); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// Equal reports whether the files at pathA and pathB have
// the same content. A missing file never equals an
// existing one.
func Equal(pathA, pathB string) (bool, error) {
	const errCtx = "comparing digests"

	da, err := Calculate(pathA)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	db, err := Calculate(pathB)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if da == "" || db == "" {
		return false, nil
	}

	return da == db, nil
}
