// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"slices"
	"testing"
)

func TestFuzzyMatchContiguous(t *testing.T) {
	result := fuzzyMatch("Fix login redirect", []rune("login"), nil)
	if result.Score <= 0 {
		t.Fatalf("Score = %d, want positive", result.Score)
	}
	want := []int{4, 5, 6, 7, 8}
	if !slices.Equal(result.Positions, want) {
		t.Errorf("Positions = %v, want %v", result.Positions, want)
	}
}

func TestFuzzyMatchScattered(t *testing.T) {
	result := fuzzyMatch("refresh orchestrator", []rune("rfo"), nil)
	if result.Score <= 0 {
		t.Fatalf("Score = %d, want positive", result.Score)
	}
	if len(result.Positions) != 3 {
		t.Fatalf("Positions = %v, want 3 entries", result.Positions)
	}
	if !slices.IsSorted(result.Positions) {
		t.Errorf("Positions %v not ascending", result.Positions)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := fuzzyMatch("Fix login redirect", []rune("xyz"), nil)
	if result.Score != 0 || result.Positions != nil {
		t.Errorf("result = %+v, want zero", result)
	}
}

func TestFuzzyMatchSmartCase(t *testing.T) {
	if result := fuzzyMatch("Fix Login", []rune("login"), nil); result.Score <= 0 {
		t.Error("lowercase pattern should match case-insensitively")
	}
	if result := fuzzyMatch("fix login", []rune("Login"), nil); result.Score != 0 {
		t.Error("pattern with uppercase should match case-sensitively")
	}
}

func TestFuzzyMatchEmptyInputs(t *testing.T) {
	if result := fuzzyMatch("anything", nil, nil); result.Score != 0 {
		t.Errorf("empty pattern Score = %d, want 0", result.Score)
	}
	if result := fuzzyMatch("", []rune("a"), nil); result.Score != 0 {
		t.Errorf("empty text Score = %d, want 0", result.Score)
	}
}
