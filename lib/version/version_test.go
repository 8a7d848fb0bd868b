// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoUsesInjectedValues(t *testing.T) {
	saved := []string{GitCommit, GitDirty, BuildTime, Version}
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	})

	GitCommit, GitDirty, BuildTime, Version = "abc1234", "true", "2026-03-20T09:00:00Z", "1.2.0"
	want := "1.2.0 (abc1234-dirty, 2026-03-20T09:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() = %q does not start with Info()", full)
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q missing platform", full)
	}
}
