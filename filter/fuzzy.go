package filter

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/drake/pick/candidate"
)

// Match represents a scored fuzzy match result.
type Match struct {
	Index     int   // Original index in the option list
	Score     int   // Match quality (higher = better)
	Positions []int // Matched rune positions in the search text
}

// Scoring weights. A matched rune is worth more than any single bonus so
// that longer patterns always outrank shorter ones on the same text.
const (
	scoreMatch       = 16
	bonusBoundary    = 8
	bonusConsecutive = 12
	maxLeadPenalty   = 10
)

// Fuzzy keeps candidates containing every space-separated term of query as
// a subsequence, best matches first. Ties keep input order.
//
// Records are scored field by field: each term takes its best field, and
// different terms may match different fields.
func Fuzzy(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return options, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := rank(len(options), func(i int) (int, []int) {
		return scoreCandidate(terms, options[i])
	})
	out := make([]candidate.Candidate, len(ranked))
	for i, m := range ranked {
		out[i] = options[m.Index]
	}
	return out, nil
}

// Rank scores items against pattern and returns the matches sorted by score
// descending, then by original index.
//
// Pattern is split on spaces; each term must match (AND logic) in any order,
// so "test this" matches "this is a test".
func Rank(pattern string, items []string) []Match {
	terms := strings.Fields(pattern)
	if len(terms) == 0 {
		matches := make([]Match, len(items))
		for i := range items {
			matches[i] = Match{Index: i}
		}
		return matches
	}
	return rank(len(items), func(i int) (int, []int) {
		return scoreTerms(terms, items[i])
	})
}

func rank(n int, score func(i int) (int, []int)) []Match {
	var matches []Match
	for i := 0; i < n; i++ {
		if s, positions := score(i); s > 0 {
			matches = append(matches, Match{Index: i, Score: s, Positions: positions})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// scoreCandidate scores a text candidate on its text. A record needs every
// term to match at least one field; positions are not reported for records
// since they span several strings.
func scoreCandidate(terms []string, c candidate.Candidate) (int, []int) {
	if s, ok := c.Text(); ok {
		return scoreTerms(terms, s)
	}
	fields := Haystacks(c)
	total := 0
	for _, term := range terms {
		best := 0
		for _, f := range fields {
			if s, _ := Score(term, f); s > best {
				best = s
			}
		}
		if best == 0 {
			return 0, nil
		}
		total += best
	}
	return total, nil
}

func scoreTerms(terms []string, text string) (int, []int) {
	total := 0
	set := make(map[int]struct{})
	for _, term := range terms {
		s, positions := Score(term, text)
		if s == 0 {
			return 0, nil
		}
		total += s
		for _, p := range positions {
			set[p] = struct{}{}
		}
	}
	all := make([]int, 0, len(set))
	for p := range set {
		all = append(all, p)
	}
	sort.Ints(all)
	return total, all
}

// Score computes a fuzzy match score for pattern against text, ignoring
// case. A score of 0 means pattern is not a subsequence of text.
//
// Every occurrence of the first pattern rune is tried as an anchor; from each
// anchor the rest of the pattern is matched greedily and the best scoring
// alignment wins. Word starts and runs of adjacent matches earn bonuses, gaps
// and a late first match cost points.
func Score(pattern, text string) (int, []int) {
	pat := foldRunes(pattern)
	if len(pat) == 0 || text == "" {
		return 0, nil
	}
	orig := []rune(text)
	folded := foldRunes(text)

	var best []int
	bestScore := 0
	for anchor, r := range folded {
		if r != pat[0] {
			continue
		}
		positions := alignFrom(folded, pat, anchor)
		if positions == nil {
			// No later anchor can fit the pattern either.
			break
		}
		if s := scoreAlignment(orig, positions); s > bestScore {
			bestScore, best = s, positions
		}
	}
	return bestScore, best
}

func foldRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

// alignFrom matches pat[0] at anchor and each following pattern rune at its
// next occurrence. It returns nil when text runs out first.
func alignFrom(text, pat []rune, anchor int) []int {
	positions := make([]int, 0, len(pat))
	positions = append(positions, anchor)
	i := anchor + 1
	for _, r := range pat[1:] {
		for i < len(text) && text[i] != r {
			i++
		}
		if i == len(text) {
			return nil
		}
		positions = append(positions, i)
		i++
	}
	return positions
}

func scoreAlignment(text []rune, positions []int) int {
	score := -min(positions[0], maxLeadPenalty)
	for i, pos := range positions {
		score += scoreMatch
		if wordStart(text, pos) {
			score += bonusBoundary
		}
		if i == 0 {
			continue
		}
		if gap := pos - positions[i-1] - 1; gap == 0 {
			score += bonusConsecutive
		} else {
			score -= gap
		}
	}
	return max(score, 1)
}

// wordStart reports whether text[pos] begins a word: the first rune, a rune
// after a separator, or an upper-case rune following a lower-case one.
func wordStart(text []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev, cur := text[pos-1], text[pos]
	if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(cur)
}
