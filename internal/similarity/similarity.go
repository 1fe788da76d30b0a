// Package similarity implements surface-level text overlap between a new
// claim and a corpus of prior claims. Overlap is measured with character
// 3-shingles and Jaccard similarity; there is no semantic understanding here.
package similarity

import (
	"fmt"
	"strings"

	"hypolab/domain/hypothesis"
	"hypolab/domain/pack"
)

// DefaultThreshold is the Jaccard score at or above which a claim is
// considered a duplicate of an existing one.
const DefaultThreshold = 0.82

// Match is the best overlap found in a corpus scan
type Match struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Difference string  `json:"difference"`
}

// Normalize lowercases, strips everything outside [a-z0-9 ] and collapses
// whitespace runs into single spaces.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Shingles3 returns the set of 3-character substrings of the normalized text
func Shingles3(text string) map[string]struct{} {
	return shinglesOf(Normalize(text))
}

func shinglesOf(normalized string) map[string]struct{} {
	shingles := make(map[string]struct{})
	for i := 0; i+3 <= len(normalized); i++ {
		shingles[normalized[i:i+3]] = struct{}{}
	}
	return shingles
}

// Jaccard computes |A ∩ B| / |A ∪ B| over 3-shingle sets. Two texts that both
// normalize to empty are identical by convention (1.0). A union of size zero
// in any other case scores 0.0; the union must be checked before dividing.
func Jaccard(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" && nb == "" {
		return 1.0
	}

	sa := shinglesOf(na)
	sb := shinglesOf(nb)

	intersection := 0
	for s := range sa {
		if _, ok := sb[s]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Check scans every prior and every existing hypothesis for the single best
// overlap with claim. Read-only over both corpora.
func Check(claim string, priors []pack.Prior, hypotheses []hypothesis.Hypothesis, threshold float64) Match {
	best := Match{Score: 0.0, Label: "none"}

	for _, p := range priors {
		score := Jaccard(claim, p.ComparisonText())
		if score > best.Score {
			best.Score = score
			best.Label = p.Title
		}
	}
	for _, h := range hypotheses {
		text := h.Claim
		if text == "" {
			text = h.Title
		}
		score := Jaccard(claim, text)
		if score > best.Score {
			best.Score = score
			best.Label = fmt.Sprintf("%s (%s)", h.Title, h.ID)
		}
	}

	if best.Score >= threshold {
		best.Difference = fmt.Sprintf("claim overlaps %q: jaccard %.3f meets threshold %.2f", best.Label, best.Score, threshold)
	} else {
		best.Difference = fmt.Sprintf("claim differs from closest known %q: jaccard %.3f below threshold %.2f", best.Label, best.Score, threshold)
	}
	return best
}
