// Package classification implements the ensemble offense classifier.  Three
// scorers (lexical keyword matching, zero-shot label scoring, embedding
// similarity) run independently over the offense catalog; their weighted
// scores are merged, ranked, and re-normalized so the top candidate always
// reports confidence 1.0.
package classification

// Method identifies which scorer contributed to a candidate.
type Method string

const (
	MethodKeyword   Method = "keyword"
	MethodZeroShot  Method = "zero_shot"
	MethodEmbedding Method = "embedding"
)

// Candidate is one ranked offense in a classification result.
type Candidate struct {
	OffenseCode   string   `json:"offense_code"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PenaltyClause string   `json:"penalty_clause"`
	Confidence    float64  `json:"confidence"`
	Methods       []Method `json:"methods"`
}

// Weights are the per-scorer merge weights.  Semantic signals are trusted
// more than literal keyword overlap.
type Weights struct {
	Keyword   float64
	ZeroShot  float64
	Embedding float64
}

// rawScore is a single scorer's output for one offense.
type rawScore struct {
	code  string
	score float64
}
