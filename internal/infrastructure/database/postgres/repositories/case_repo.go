package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// CaseRepo is the PostgreSQL legalcase.Corpus.  Insertion order is preserved
// via the serial position column; the retrieval index build depends on it.
type CaseRepo struct {
	pool *pgxpool.Pool
}

// NewCaseRepo returns a corpus backed by the given pool.
func NewCaseRepo(pool *pgxpool.Pool) *CaseRepo {
	return &CaseRepo{pool: pool}
}

// Save persists a case.
func (r *CaseRepo) Save(ctx context.Context, c *legalcase.Case) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var decidedOn *time.Time
	if !c.DecidedOn.IsZero() {
		decidedOn = &c.DecidedOn
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO legal_cases (id, title, narrative, sections, outcome, court, decided_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Title, c.Narrative, c.Sections, c.Outcome, c.Court, decidedOn)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeDuplicateCaseID, "case %s already exists", c.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to save case")
	}
	return nil
}

// FindByID retrieves a case by identifier.
func (r *CaseRepo) FindByID(ctx context.Context, id string) (*legalcase.Case, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, narrative, sections, outcome, court, decided_on
		FROM legal_cases WHERE id = $1`, id)

	c, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Newf(errors.ErrCodeCaseNotFound, "case %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to load case")
	}
	return c, nil
}

// List returns all cases in insertion order.
func (r *CaseRepo) List(ctx context.Context) ([]*legalcase.Case, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, narrative, sections, outcome, court, decided_on
		FROM legal_cases ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to list cases")
	}
	defer rows.Close()

	var out []*legalcase.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to scan case")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: case iteration failed")
	}
	return out, nil
}

// Count returns the corpus size.
func (r *CaseRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM legal_cases`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to count cases")
	}
	return n, nil
}

func scanCase(row pgx.Row) (*legalcase.Case, error) {
	var (
		c         legalcase.Case
		decidedOn *time.Time
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Narrative, &c.Sections, &c.Outcome, &c.Court, &decidedOn); err != nil {
		return nil, err
	}
	if decidedOn != nil {
		c.DecidedOn = *decidedOn
	}
	return &c, nil
}

var _ legalcase.Corpus = (*CaseRepo)(nil)
