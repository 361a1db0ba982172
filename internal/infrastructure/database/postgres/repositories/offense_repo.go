// Package repositories contains the PostgreSQL implementations of the
// offense catalog and case corpus ports.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// OffenseRepo is the PostgreSQL offense.Catalog.  Insertion order is
// preserved via the serial position column.
type OffenseRepo struct {
	pool *pgxpool.Pool
}

// NewOffenseRepo returns a catalog backed by the given pool.
func NewOffenseRepo(pool *pgxpool.Pool) *OffenseRepo {
	return &OffenseRepo{pool: pool}
}

// Save persists an offense.
func (r *OffenseRepo) Save(ctx context.Context, o *offense.Offense) error {
	if err := o.Validate(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO offenses (code, title, description, penalty_clause, keywords)
		VALUES ($1, $2, $3, $4, $5)`,
		o.Code, o.Title, o.Description, o.PenaltyClause, o.Keywords)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeDuplicateOffense, "offense %s already exists", o.Code)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to save offense")
	}
	return nil
}

// FindByCode retrieves an offense by section code.
func (r *OffenseRepo) FindByCode(ctx context.Context, code string) (*offense.Offense, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT code, title, description, penalty_clause, keywords
		FROM offenses WHERE code = $1`, code)

	o, err := scanOffense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Newf(errors.ErrCodeOffenseNotFound, "offense %s not found", code)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to load offense")
	}
	return o, nil
}

// List returns all offenses in insertion order.
func (r *OffenseRepo) List(ctx context.Context) ([]*offense.Offense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, title, description, penalty_clause, keywords
		FROM offenses ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to list offenses")
	}
	defer rows.Close()

	var out []*offense.Offense
	for rows.Next() {
		o, err := scanOffense(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to scan offense")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: offense iteration failed")
	}
	return out, nil
}

// Count returns the catalog size.
func (r *OffenseRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM offenses`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: failed to count offenses")
	}
	return n, nil
}

func scanOffense(row pgx.Row) (*offense.Offense, error) {
	var o offense.Offense
	if err := row.Scan(&o.Code, &o.Title, &o.Description, &o.PenaltyClause, &o.Keywords); err != nil {
		return nil, err
	}
	return &o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ offense.Catalog = (*OffenseRepo)(nil)
