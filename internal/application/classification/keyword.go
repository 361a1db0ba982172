package classification

import (
	"sort"
	"strings"

	"github.com/lexintel/LexTriage/internal/domain/offense"
)

// keywordScoreCeilingPerTerm is the heuristic per-keyword score ceiling used
// to normalize raw keyword scores into a confidence: a keyword can earn at
// most 1 (keyword-set hit) + 0.5 (text hit) + 2 (title hit) + 1 (description
// hit), and 3.5 approximates that bound in practice.
const keywordScoreCeilingPerTerm = 3.5

// scoreKeywords runs the lexical scorer: each context keyword earns points
// per offense for keyword-set membership, presence in the query text, and
// substring hits in the offense title and description.  Offenses scoring
// zero are excluded; at most topK results are returned in descending score
// order, catalog order breaking ties.
func scoreKeywords(offenses []*offense.Offense, text string, keywords []string, topK int) []rawScore {
	if len(keywords) == 0 || len(offenses) == 0 {
		return nil
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		return nil
	}

	textLower := strings.ToLower(text)
	out := make([]rawScore, 0, len(offenses))

	for _, o := range offenses {
		titleLower := strings.ToLower(o.Title)
		descLower := strings.ToLower(o.Description)

		var score float64
		for _, kw := range lowered {
			if o.HasKeyword(kw) {
				score += 1
			}
			if strings.Contains(textLower, kw) {
				score += 0.5
			}
			if strings.Contains(titleLower, kw) {
				score += 2
			}
			if descLower != "" && strings.Contains(descLower, kw) {
				score += 1
			}
		}
		if score > 0 {
			ceiling := float64(len(lowered)) * keywordScoreCeilingPerTerm
			out = append(out, rawScore{code: o.Code, score: clamp01(score / ceiling)})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].score > out[b].score })
	if topK < len(out) {
		out = out[:topK]
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
