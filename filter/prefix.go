package filter

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/drake/pick/candidate"
)

// Prefix keeps candidates where every space-separated term of query starts
// some word of the candidate, case-insensitively. Results keep input order.
func Prefix(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return options, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trie := buildWordTrie(options)

	var hits map[int]bool
	for _, term := range terms {
		found := make(map[int]bool)
		err := trie.VisitSubtree(patricia.Prefix(term), func(_ patricia.Prefix, item patricia.Item) error {
			for _, idx := range item.([]int) {
				found[idx] = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if hits == nil {
			hits = found
			continue
		}
		for idx := range hits {
			if !found[idx] {
				delete(hits, idx)
			}
		}
	}

	indices := make([]int, 0, len(hits))
	for idx := range hits {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]candidate.Candidate, len(indices))
	for i, idx := range indices {
		out[i] = options[idx]
	}
	return out, nil
}

// buildWordTrie indexes the lowercased words of every option. Each key maps
// to the ascending option indices containing that word.
func buildWordTrie(options []candidate.Candidate) *patricia.Trie {
	trie := patricia.NewTrie()
	for i, c := range options {
		for _, word := range words(searchText(c)) {
			key := patricia.Prefix(word)
			if item := trie.Get(key); item != nil {
				list := item.([]int)
				if list[len(list)-1] != i {
					trie.Set(key, append(list, i))
				}
				continue
			}
			trie.Insert(key, []int{i})
		}
	}
	return trie
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
