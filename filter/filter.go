// Package filter narrows a candidate list to the entries matching a query.
//
// A Filterer is a pure function of the option list and the query: it must
// not mutate options and it returns a new ordered subset. Strategies that
// cannot fail still take a context so that remote or scripted filters share
// the same shape.
package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/drake/pick/candidate"
)

// Filterer produces the subset of options matching query.
type Filterer func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error)

// Names lists the strategies ByName understands.
var Names = []string{"substring", "fuzzy", "prefix", "regex"}

// Options tunes strategies built by ByName.
type Options struct {
	CacheSize int // LRU size for regex patterns and memoized results; 0 disables memoization
}

// ByName resolves a strategy name. The empty name is Substring.
func ByName(name string, opts Options) (Filterer, error) {
	var f Filterer
	switch strings.ToLower(name) {
	case "", "substring":
		f = Substring
	case "fuzzy":
		f = Fuzzy
	case "prefix":
		f = Prefix
	case "regex":
		size := opts.CacheSize
		if size <= 0 {
			size = 64
		}
		f = NewRegex(size)
	default:
		return nil, fmt.Errorf("unknown filter %q (want one of %s)", name, strings.Join(Names, ", "))
	}
	if opts.CacheSize > 0 {
		return NewCached(f, opts.CacheSize), nil
	}
	return f, nil
}

// Substring keeps candidates containing query, case-insensitively. Text
// candidates match on their text; records match when any field's value does.
// An empty query returns options unchanged.
func Substring(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
	if query == "" {
		return options, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := make([]candidate.Candidate, 0, len(options))
	for _, c := range options {
		if matches(c, q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Matches reports whether c contains query, case-insensitively.
func Matches(c candidate.Candidate, query string) bool {
	return matches(c, strings.ToLower(query))
}

func matches(c candidate.Candidate, lowerQuery string) bool {
	for _, h := range Haystacks(c) {
		if strings.Contains(strings.ToLower(h), lowerQuery) {
			return true
		}
	}
	return false
}

// Haystacks returns the strings a candidate is matched against: the text of a
// text candidate, or each stringified field value of a record.
func Haystacks(c candidate.Candidate) []string {
	if s, ok := c.Text(); ok {
		return []string{s}
	}
	fields := c.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = candidate.FormatValue(f.Value)
	}
	return out
}
