// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"slices"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching a pattern against one string.
// A zero Score means no match.
type FuzzyResult struct {
	Score int

	// Positions are the matched rune indexes in the text, ascending.
	Positions []int
}

// fuzzyMatch runs fzf's V2 algorithm (the one behind fzf's default
// scoring) over text. Matching is case-insensitive unless the pattern
// contains an uppercase rune, mirroring fzf's smart case. slab may be
// nil; passing one reuses scratch memory across calls.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 || text == "" {
		return FuzzyResult{}
	}

	caseSensitive := slices.ContainsFunc(pattern, unicode.IsUpper)
	if !caseSensitive {
		lowered := make([]rune, len(pattern))
		for index, character := range pattern {
			lowered[index] = unicode.ToLower(character)
		}
		pattern = lowered
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(caseSensitive, true, true, &chars, pattern, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = slices.Clone(*positions)
		slices.Sort(matched.Positions)
	}
	return matched
}
