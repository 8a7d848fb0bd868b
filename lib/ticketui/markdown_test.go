// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderDescriptionEmpty(t *testing.T) {
	if rendered := renderDescription("  \n ", DefaultTheme, 60); rendered != "" {
		t.Errorf("rendered = %q, want empty", rendered)
	}
}

func TestRenderDescriptionStructure(t *testing.T) {
	input := strings.Join([]string{
		"## Steps",
		"",
		"Run the **sync** command with",
		"a cold cache.",
		"",
		"- first item",
		"- second item",
		"",
		"```go",
		"fmt.Println(\"hi\")",
		"```",
		"",
		"See [the runbook](https://example.com/runbook).",
	}, "\n")

	plain := ansi.Strip(renderDescription(input, DefaultTheme, 60))
	for _, want := range []string{
		"Steps",
		"Run the sync command with a cold cache.",
		"first item",
		"second item",
		"Println",
		"the runbook",
		"https://example.com/runbook",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("rendered output missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "**") || strings.Contains(plain, "```") {
		t.Errorf("markdown syntax leaked into output:\n%s", plain)
	}
}

func TestRenderDescriptionWraps(t *testing.T) {
	input := strings.Repeat("word ", 40)
	for _, line := range strings.Split(ansi.Strip(renderDescription(input, DefaultTheme, 30)), "\n") {
		if width := ansi.StringWidth(line); width > 30 {
			t.Errorf("line %q is %d wide, limit 30", line, width)
		}
	}
}
