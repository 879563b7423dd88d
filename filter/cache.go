package filter

import (
	"context"
	"hash/fnv"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drake/pick/candidate"
)

// NewCached memoizes next by option set and query. Entries are keyed by a
// fingerprint of the options, so a replaced universe never serves stale
// results. Errors are not cached.
func NewCached(next Filterer, size int) Filterer {
	cache, _ := lru.New[string, []candidate.Candidate](max(1, size))

	return func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
		key := fingerprint(options) + "\x00" + query
		if hit, ok := cache.Get(key); ok {
			return clone(hit), nil
		}
		out, err := next(ctx, options, query)
		if err != nil {
			return nil, err
		}
		cache.Add(key, clone(out))
		return out, nil
	}
}

func fingerprint(options []candidate.Candidate) string {
	h := fnv.New64a()
	for _, c := range options {
		h.Write([]byte(c.Key()))
		h.Write([]byte{0})
	}
	return strconv.Itoa(len(options)) + ":" + strconv.FormatUint(h.Sum64(), 16)
}

func clone(list []candidate.Candidate) []candidate.Candidate {
	out := make([]candidate.Candidate, len(list))
	copy(out, list)
	return out
}
