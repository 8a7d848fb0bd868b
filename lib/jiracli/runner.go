// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes one jira CLI invocation and returns its stdout.
// Production code uses ExecRunner; tests substitute a scripted fake.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the jira binary as a subprocess.
type ExecRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecRunner returns a Runner for the given binary. A positive
// timeout bounds every invocation; zero leaves only ctx in charge.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = "jira"
	}
	return &ExecRunner{binary: binary, timeout: timeout}
}

// Binary returns the executable name or path.
func (runner *ExecRunner) Binary() string {
	return runner.binary
}

// Run executes the binary with args and returns stdout. Stderr is
// captured separately and included in the error on failure.
func (runner *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	if runner.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runner.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, runner.binary, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// CommandError is a failed jira CLI invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("jira %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("jira %s: %v (stderr: %s)", strings.Join(e.Args, " "), e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }
