// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board

import (
	"math"
	"regexp"
	"strings"
)

// codenameScore orders codename match candidates; lower is better on
// each field in turn.
type codenameScore struct {
	// remaining counts input parts the suffix walk did not consume,
	// minus one; -1 means the whole input was matched.
	remaining int
	// unmatched counts candidate codename parts that consumed no
	// input, so "reef" prefers profile reef over profile reef-rev2.
	unmatched int
	// negDepth is the negated section depth; deeper (more specific)
	// sections win ties.
	negDepth int
}

func (s codenameScore) compare(other codenameScore) int {
	switch {
	case s.remaining != other.remaining:
		return s.remaining - other.remaining
	case s.unmatched != other.unmatched:
		return s.unmatched - other.unmatched
	default:
		return s.negDepth - other.negDepth
	}
}

// splitCodename normalizes a codename into its delimiter-separated
// parts: "Veyron-Speedy" and "veyron_speedy" are the same.
func splitCodename(s string) []string {
	return strings.Split(strings.ReplaceAll(strings.ToLower(s), "-", "_"), "_")
}

// sentinelScore is the score of the synthetic "no match" candidate.
func sentinelScore(input []string) codenameScore {
	return codenameScore{remaining: len(input) - 1}
}

// forcedBestScore outranks any score the suffix walk can produce. It is
// assigned to profiles whose nearest ancestor carries the same
// codename, so a family section never wins over its specific child.
func forcedBestScore(e *Entry) codenameScore {
	return codenameScore{remaining: math.MinInt32, negDepth: -e.Depth}
}

// partsMatch reports whether an input part consumes a candidate part.
// The historical x86 boards were renamed to amd64 at some point, so
// those two are treated as the same part.
func partsMatch(input, candidate string) bool {
	return input == candidate || (input == "x86" && candidate == "amd64")
}

// scoreEntry runs the suffix-alignment walk of the input parts against
// a catalog entry's section path and codename parts.
func scoreEntry(input []string, e *Entry) codenameScore {
	if ancestorSharesCodename(e) {
		return forcedBestScore(e)
	}

	sectionParts := strings.Split(e.Section, "/")
	codenameParts := splitCodename(e.Board.Codename)

	matchParts := append(append([]string(nil), sectionParts...), codenameParts...)

	idx := len(input) - 1
	unmatched := 0

	for len(matchParts) > 0 && idx >= 0 {
		last := len(matchParts) - 1

		if partsMatch(input[idx], matchParts[last]) {
			idx--
		} else if last >= len(sectionParts) {
			unmatched++
		}

		matchParts = matchParts[:last]
	}

	// Codename parts never reached by the walk still count against the
	// candidate.
	if n := len(matchParts) - len(sectionParts); n > 0 {
		unmatched += n
	}

	return codenameScore{
		remaining: idx,
		unmatched: unmatched,
		negDepth:  -e.Depth,
	}
}

// ancestorSharesCodename reports whether the entry's nearest ancestor
// profile carries the same codename (typically via inheritance).
func ancestorSharesCodename(e *Entry) bool {
	return e.Parent != nil &&
		e.Parent.Board.Codename != "" &&
		e.Parent.Board.Codename == e.Board.Codename
}

// bestCodenameMatches scores every candidate entry plus the sentinel
// and returns the entries sharing the minimal score. sentinel is true
// when the "no match" candidate is part of the winning group.
func bestCodenameMatches(input []string, entries []*Entry) (matches []*Entry, sentinel bool) {
	best := sentinelScore(input)
	sentinel = true

	for _, e := range entries {
		if e.Board.Codename == "" {
			continue
		}

		s := scoreEntry(input, e)

		switch c := s.compare(best); {
		case c < 0:
			best = s
			matches = matches[:0]
			sentinel = false

			matches = append(matches, e)
		case c == 0:
			matches = append(matches, e)
		}
	}

	return matches, sentinel
}

var revSKUPart = regexp.MustCompile(`^(rev|sku)\d+$`)

// stripRevSKU drops trailing revN/skuN parts from a normalized
// codename, mirroring how bare dt-compatible values are widened to
// match suffixed variants.
func stripRevSKU(input []string) []string {
	end := len(input)

	for end > 1 && revSKUPart.MatchString(input[end-1]) {
		end--
	}

	return input[:end]
}
