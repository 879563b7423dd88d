package filter

import (
	"context"
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drake/pick/candidate"
)

// NewRegex returns a Filterer that treats the query as a case-insensitive
// regular expression. Compiled patterns are kept in an LRU of the given
// size. An invalid pattern is reported as an error.
func NewRegex(size int) Filterer {
	cache, _ := lru.New[string, *regexp.Regexp](max(1, size))

	return func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
		if query == "" {
			return options, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		re, ok := cache.Get(query)
		if !ok {
			var err error
			re, err = regexp.Compile("(?i)" + query)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", query, err)
			}
			cache.Add(query, re)
		}

		out := make([]candidate.Candidate, 0, len(options))
		for _, c := range options {
			for _, h := range Haystacks(c) {
				if re.MatchString(h) {
					out = append(out, c)
					break
				}
			}
		}
		return out, nil
	}
}
