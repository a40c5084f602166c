// Package exec provides shell command execution helpers.
package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
)

// Result holds the outcome of a finished command.
type Result struct {
	// Output is the combined stdout+stderr output.
	Output string
	// ExitCode is the process exit status. Zero on
	// success, -1 when the process did not run.
	ExitCode int
}

// Ex executes the named command in the given directory and
// returns a structured Result. Pass empty dir to use the
// current working directory. A non-zero exit status is
// returned as an error wrapping the command line and the
// captured output.
func Ex(
	dir string,
	name string,
	arg ...string,
) (Result, error) {
	const errCtx = "executing command"

	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(scrub(arg), " "),
	)

	cmd := exec.CommandContext(context.Background(), name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()

	res := Result{
		Output:   string(by),
		ExitCode: exitCode(err),
	}

	slog.Info(
		"output",
		"result", res.Output,
		"exit_code", res.ExitCode,
	)

	if err != nil {
		return res, fmt.Errorf(
			"%s: %s %s: %s: %w",
			errCtx, name, strings.Join(arg, " "),
			strings.TrimSpace(res.Output), err,
		)
	}

	return res, nil
}

// scrub strips credentials from URL-shaped arguments so
// authenticated remotes never reach the logs.
func scrub(args []string) []string {
	out := make([]string, len(args))

	for i, a := range args {
		out[i] = a

		if !strings.Contains(a, "://") ||
			!strings.Contains(a, "@") {
			continue
		}

		u, err := url.Parse(a)
		if err != nil || u.User == nil {
			continue
		}

		u.User = nil
		out[i] = u.String()
	}

	return out
}

// exitCode extracts the process exit status from err. Zero
// when err is nil, -1 when the process never started.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}

	return -1
}
