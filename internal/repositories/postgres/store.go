// Package postgres implements the repositories on top of a pgx pool.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sponsorwall/backend/internal/repositories"
)

const uniqueViolation = "23505"

func NewStore(pool *pgxpool.Pool) repositories.Store {
	return repositories.Store{
		Campaigns:    NewCampaignRepo(pool),
		Layouts:      NewLayoutRepo(pool),
		Sponsorships: NewSponsorshipRepo(pool),
		Transactions: NewTransactionRepo(pool),
	}
}

// mapErr translates pgx sentinel errors into repository errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repositories.ErrConflict
	}
	return err
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}
