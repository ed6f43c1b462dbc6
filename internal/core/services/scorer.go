package services

import (
	"math"
	"strings"
)

// Tokenize returns the set of lower-cased, whitespace-separated words in s.
func Tokenize(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Score returns how many distinct query words also occur in content.
// Matching is case-insensitive and ignores word order and frequency.
func Score(query, content string) int {
	return overlap(Tokenize(query), content)
}

func overlap(queryTokens map[string]struct{}, content string) int {
	if len(queryTokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(queryTokens))
	for _, f := range strings.Fields(strings.ToLower(content)) {
		if _, ok := queryTokens[f]; ok {
			seen[f] = struct{}{}
		}
	}
	return len(seen)
}

// CosineScore returns the cosine similarity of a and b in [-1, 1].
// It returns 0 when either vector is empty, the lengths differ,
// or either norm is zero.
func CosineScore(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}
