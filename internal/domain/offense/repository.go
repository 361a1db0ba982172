package offense

import "context"

// Catalog defines the read/write contract for the offense catalog.
// Implementations must preserve insertion order in List: the ensemble
// classifier relies on it for deterministic tie-breaking.
type Catalog interface {
	// Save persists an offense.  Returns errors.ErrCodeDuplicateOffense if an
	// offense with the same code already exists.
	Save(ctx context.Context, o *Offense) error

	// FindByCode retrieves an offense by its section code.
	// Returns errors.ErrCodeOffenseNotFound if no such offense exists.
	FindByCode(ctx context.Context, code string) (*Offense, error)

	// List returns all offenses in insertion order.
	List(ctx context.Context) ([]*Offense, error)

	// Count returns the number of offenses in the catalog.
	Count(ctx context.Context) (int, error)
}
