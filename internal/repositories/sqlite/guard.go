package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

// lockCampaign opens the write side of tx with a no-op update of the
// campaign row, so no other writer can slip a sponsorship in before the
// transaction commits. It returns the campaign's updated_at in millis.
func lockCampaign(ctx context.Context, tx *sql.Tx, id uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE campaigns SET updated_at = updated_at WHERE id = ?`, id)
	if err := affectedOne(res, err); err != nil {
		return 0, err
	}
	var updatedAt int64
	err = tx.QueryRowContext(ctx, `SELECT updated_at FROM campaigns WHERE id = ?`, id).Scan(&updatedAt)
	return updatedAt, mapErr(err)
}

func checkNoSponsorships(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM sponsorships WHERE campaign_id = ?)
	`, campaignID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return repositories.ErrSponsorsExist
	}
	return nil
}

func layoutIDOf(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM layouts WHERE campaign_id = ?`, campaignID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func updatePlacementPrices(ctx context.Context, tx *sql.Tx, layoutID uuid.UUID, placements []models.Placement) error {
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE placements SET price = ?, section = ?
		WHERE layout_id = ? AND position_id = ?
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range placements {
		res, err := stmt.ExecContext(ctx, p.Price, p.Section, layoutID, p.PositionID)
		if err := affectedOne(res, err); err != nil {
			return fmt.Errorf("update placement %s: %w", p.PositionID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE layouts SET updated_at = ? WHERE id = ?`, toMillis(time.Now()), layoutID)
	return err
}
