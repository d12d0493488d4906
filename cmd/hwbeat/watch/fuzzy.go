// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"strings"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is one fuzzy match outcome: a relevance score for
// ranking and the rune positions that matched, for highlighting.
// The zero value means no match.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch scores pattern against text with fzf's V2 algorithm.
// Matching is case-insensitive: both sides are lowercased before the
// algorithm runs. An empty pattern does not match. The slab is fzf's
// scratch memory; nil allocates per call, callers matching in a loop
// should pass a shared slab.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 || text == "" {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for index, r := range pattern {
		lowered[index] = unicode.ToLower(r)
	}

	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, false, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = *positions
	}
	return match
}

// newSlab allocates fzf scratch memory sized like fzf's own matcher
// defaults.
func newSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}
