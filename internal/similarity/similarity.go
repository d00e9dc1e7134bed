// Package similarity scores how close two short text strings are, normalized
// to [0, 1]. The delegation service uses it to recognize retried delegation
// requests by title; the metric is an interface so callers can swap in an
// edit-distance or embedding-based scorer without touching control flow.
package similarity

import "strings"

// Scorer computes a symmetric similarity score in [0, 1].
// 1 means identical, 0 means no overlap.
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(a, b string) float64

// Score implements Scorer.
func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// TokenSet is the default scorer: the Sørensen–Dice coefficient over
// lowercased whitespace-delimited token sets. Word order and repetition are
// ignored, which is the right bias for retried task titles that differ only
// in punctuation or casing.
type TokenSet struct{}

// Score implements Scorer.
func (TokenSet) Score(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]{}")
		if tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}
