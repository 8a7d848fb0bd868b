// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command returning it has already written its own
// output; "cache inspect" uses it when there is no snapshot.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Fatal reports err and exits. An error carrying an ExitCode method
// exits with that code silently; anything else is written to stderr as
// "error: err" and exits 1.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w unless it carries its own exit code, and
// returns the code the process should exit with.
func Report(w io.Writer, err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
