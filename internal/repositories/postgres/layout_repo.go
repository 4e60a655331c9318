package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type LayoutRepo struct {
	pool *pgxpool.Pool
}

func NewLayoutRepo(pool *pgxpool.Pool) *LayoutRepo {
	return &LayoutRepo{pool: pool}
}

func (r *LayoutRepo) Create(ctx context.Context, l *models.Layout, campaignVersion time.Time) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updatedAt, err := lockCampaign(ctx, tx, l.CampaignID)
	if err != nil {
		return err
	}
	if !updatedAt.Equal(campaignVersion) {
		return repositories.ErrStale
	}
	if err := checkNoSponsorships(ctx, tx, l.CampaignID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO layouts (id, campaign_id, layout_type, total_positions, grid_columns, max_sponsors)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, l.ID, l.CampaignID, l.LayoutType, l.TotalPositions, l.Columns, l.MaxSponsors,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	if len(l.Placements) > 0 {
		batch := &pgx.Batch{}
		for i := range l.Placements {
			p := &l.Placements[i]
			p.LayoutID = l.ID
			batch.Queue(`
				INSERT INTO placements (layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, l.ID, p.PositionID, p.Row, p.Column, p.Section, p.Price, p.IsTaken, p.SponsorshipID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert placements: %w", mapErr(err))
		}
	}

	return tx.Commit(ctx)
}

func (r *LayoutRepo) GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.Layout, error) {
	var l models.Layout
	err := r.pool.QueryRow(ctx, `
		SELECT id, campaign_id, layout_type, total_positions, grid_columns, max_sponsors, created_at, updated_at
		FROM layouts WHERE campaign_id = $1
	`, campaignID).Scan(&l.ID, &l.CampaignID, &l.LayoutType, &l.TotalPositions, &l.Columns,
		&l.MaxSponsors, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id
		FROM placements WHERE layout_id = $1
		ORDER BY row_num, col_num
	`, l.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, err
		}
		l.Placements = append(l.Placements, *p)
	}
	return &l, rows.Err()
}

func scanPlacement(row scanner) (*models.Placement, error) {
	var p models.Placement
	err := row.Scan(&p.LayoutID, &p.PositionID, &p.Row, &p.Column, &p.Section, &p.Price, &p.IsTaken, &p.SponsorshipID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *LayoutRepo) GetPlacement(ctx context.Context, layoutID uuid.UUID, positionID string) (*models.Placement, error) {
	return scanPlacement(r.pool.QueryRow(ctx, `
		SELECT layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id
		FROM placements WHERE layout_id = $1 AND position_id = $2
	`, layoutID, positionID))
}

func (r *LayoutRepo) Reserve(ctx context.Context, layoutID uuid.UUID, positionID string, sponsorshipID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE placements
		SET is_taken = true, sponsorship_id = $3
		WHERE layout_id = $1 AND position_id = $2 AND is_taken = false
	`, layoutID, positionID, sponsorshipID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missOrTaken(ctx, layoutID, positionID)
}

// missOrTaken explains a conditional update that matched no row.
func (r *LayoutRepo) missOrTaken(ctx context.Context, layoutID uuid.UUID, positionID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM placements WHERE layout_id = $1 AND position_id = $2)
	`, layoutID, positionID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return repositories.ErrNotFound
	}
	return repositories.ErrConflict
}

func (r *LayoutRepo) Release(ctx context.Context, layoutID uuid.UUID, positionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE placements SET is_taken = false, sponsorship_id = NULL
		WHERE layout_id = $1 AND position_id = $2
	`, layoutID, positionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *LayoutRepo) UpdatePrices(ctx context.Context, layoutID uuid.UUID, placements []models.Placement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var campaignID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT campaign_id FROM layouts WHERE id = $1`, layoutID).Scan(&campaignID); err != nil {
		return mapErr(err)
	}
	if _, err := lockCampaign(ctx, tx, campaignID); err != nil {
		return err
	}
	if err := checkNoSponsorships(ctx, tx, campaignID); err != nil {
		return err
	}
	if err := updatePlacementPrices(ctx, tx, layoutID, placements); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *LayoutRepo) ClearAll(ctx context.Context, layoutID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE placements SET is_taken = false, sponsorship_id = NULL
		WHERE layout_id = $1 AND is_taken = true
	`, layoutID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
