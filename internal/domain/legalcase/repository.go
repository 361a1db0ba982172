package legalcase

import "context"

// Corpus defines the read/write contract for the case corpus.
// Implementations must preserve insertion order in List: the retrieval
// engine's index positions map one-to-one onto it.
type Corpus interface {
	// Save persists a case.  Returns errors.ErrCodeDuplicateCaseID if a case
	// with the same ID already exists.
	Save(ctx context.Context, c *Case) error

	// FindByID retrieves a case by its identifier.
	// Returns errors.ErrCodeCaseNotFound if no such case exists.
	FindByID(ctx context.Context, id string) (*Case, error)

	// List returns all cases in insertion order.
	List(ctx context.Context) ([]*Case, error)

	// Count returns the number of cases in the corpus.
	Count(ctx context.Context) (int, error)
}
