package assistant

import (
	"sort"

	"github.com/ragline/ragline/pkg/rag"
)

// Location markers and the conjunctions that chain locations after one.
var (
	locationMarkers = map[string]bool{"in": true, "near": true, "around": true}
	conjunctions    = map[string]bool{"and": true, "or": true}
)

// ParseLocations extracts the locations a query names, ordered by first
// appearance and deduplicated. Known locations match anywhere in the query
// as case-insensitive token sequences, so "ramen in New York and Osaka"
// finds both and keeps the dictionary spelling. With an empty dictionary the
// single tokens following an "in", "near" or "around" marker are taken
// instead, conjunction-chained ones included, lowercased.
func ParseLocations(query string, known []string) []string {
	tokens := rag.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	if len(known) == 0 {
		return markedLocations(tokens)
	}

	type match struct {
		pos  int
		name string
	}

	var matches []match
	seen := make(map[string]bool, len(known))

	for _, name := range known {
		want := rag.Tokenize(name)
		if len(want) == 0 || seen[name] {
			continue
		}

		if pos := indexOfTokens(tokens, want); pos >= 0 {
			matches = append(matches, match{pos: pos, name: name})
			seen[name] = true
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}

	return out
}

// markedLocations takes the token after each marker plus the tokens chained
// to it by conjunctions. Markers and conjunctions never count as locations.
func markedLocations(tokens []string) []string {
	var out []string
	seen := make(map[string]bool)

	take := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}

	for i := 0; i+1 < len(tokens); i++ {
		if !locationMarkers[tokens[i]] {
			continue
		}

		next := tokens[i+1]
		if locationMarkers[next] || conjunctions[next] {
			continue
		}
		take(next)

		for j := i + 2; j+1 < len(tokens) && conjunctions[tokens[j]]; j += 2 {
			chained := tokens[j+1]
			if locationMarkers[chained] || conjunctions[chained] {
				break
			}
			take(chained)
		}
	}

	return out
}

// indexOfTokens returns the position of the first occurrence of want inside
// tokens, or -1.
func indexOfTokens(tokens, want []string) int {
	for i := 0; i+len(want) <= len(tokens); i++ {
		found := true
		for j, w := range want {
			if tokens[i+j] != w {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}

	return -1
}
