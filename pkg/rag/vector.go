package rag

import "math"

// Cosine is the cosine similarity of two vectors. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MatchesFilter reports whether the document's metadata carries every
// filter key with exactly the filter's value.
func MatchesFilter(doc Document, filter map[string]interface{}) bool {
	for key, want := range filter {
		if doc.Metadata[key] != want {
			return false
		}
	}

	return true
}
