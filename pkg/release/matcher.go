package release

import (
	"github.com/hbollon/go-edlib"
)

// MatchConfidence represents the confidence level of a title match.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // Score < 0.70
	ConfidenceLow                           // Score >= 0.70
	ConfidenceMedium                        // Score >= 0.85
	ConfidenceHigh                          // Score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult represents the result of a fuzzy title match.
type MatchResult struct {
	Title      string          // The matched candidate title
	Score      float64         // Jaro-Winkler similarity score (0.0-1.0)
	Confidence MatchConfidence // Confidence level based on score
}

// confidenceFor buckets a Jaro-Winkler score into a MatchConfidence tier.
func confidenceFor(score float64) MatchConfidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Match compares a candidate title against a query title using Jaro-Winkler
// similarity over their cleaned forms, so casing, punctuation, and leading
// articles don't penalize an otherwise exact match.
func Match(query, candidate string) MatchResult {
	a := CleanTitle(query)
	b := CleanTitle(candidate)

	if a == "" || b == "" {
		return MatchResult{Title: candidate, Score: 0, Confidence: ConfidenceNone}
	}
	if a == b {
		return MatchResult{Title: candidate, Score: 1, Confidence: ConfidenceHigh}
	}

	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return MatchResult{Title: candidate, Score: 0, Confidence: ConfidenceNone}
	}

	return MatchResult{
		Title:      candidate,
		Score:      float64(score),
		Confidence: confidenceFor(float64(score)),
	}
}

// MatchTitle returns the candidate with the highest Jaro-Winkler similarity
// to title, or a zero-value, ConfidenceNone result if candidates is empty.
func MatchTitle(title string, candidates []string) MatchResult {
	var best MatchResult
	for i, c := range candidates {
		r := Match(title, c)
		if i == 0 || r.Score > best.Score {
			best = r
		}
	}
	return best
}
