package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

// lockCampaign takes the campaign row FOR UPDATE. A sponsorship insert needs
// a KEY SHARE lock on the same row for its foreign key, so it waits for tx
// to finish, and tx waits for inserts already in flight.
func lockCampaign(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error) {
	var updatedAt time.Time
	err := tx.QueryRow(ctx, `SELECT updated_at FROM campaigns WHERE id = $1 FOR UPDATE`, id).Scan(&updatedAt)
	return updatedAt, mapErr(err)
}

func checkNoSponsorships(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM sponsorships WHERE campaign_id = $1)
	`, campaignID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return repositories.ErrSponsorsExist
	}
	return nil
}

func layoutIDOf(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM layouts WHERE campaign_id = $1`, campaignID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func updatePlacementPrices(ctx context.Context, tx pgx.Tx, layoutID uuid.UUID, placements []models.Placement) error {
	for _, p := range placements {
		tag, err := tx.Exec(ctx, `
			UPDATE placements SET price = $3, section = $4
			WHERE layout_id = $1 AND position_id = $2
		`, layoutID, p.PositionID, p.Price, p.Section)
		if err != nil {
			return fmt.Errorf("update placement %s: %w", p.PositionID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update placement %s: %w", p.PositionID, repositories.ErrNotFound)
		}
	}
	_, err := tx.Exec(ctx, `UPDATE layouts SET updated_at = now() WHERE id = $1`, layoutID)
	return err
}

func sameLayout(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
