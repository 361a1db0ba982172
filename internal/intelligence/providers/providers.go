// Package providers defines the ports to external model serving for
// zero-shot classification and text embedding, plus HTTP JSON clients for
// both.  Provider failures surface as typed errors so the ensemble can
// degrade to the scorers that are still healthy.
package providers

import (
	"context"
)

// LabelScore is one candidate label with its model-native score in [0, 1].
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ZeroShotClassifier scores a text against a set of candidate labels.
type ZeroShotClassifier interface {
	// ScoreLabels returns one score per candidate label.  The result order
	// follows the labels argument.  Implementations return
	// errors.ErrCodeProviderUnavailable or errors.ErrCodeInferenceTimeout on
	// failure.
	ScoreLabels(ctx context.Context, text string, labels []string) ([]LabelScore, error)
}

// Embedder maps texts to fixed-dimension dense vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.  All vectors
	// share the same dimension.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension the provider produces.
	Dimension() int
}
