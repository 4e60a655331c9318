package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type LayoutRepo struct {
	db *sql.DB
}

func (r *LayoutRepo) Create(ctx context.Context, l *models.Layout, campaignVersion time.Time) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := fromMillis(toMillis(time.Now()))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	updatedAt, err := lockCampaign(ctx, tx, l.CampaignID)
	if err != nil {
		return err
	}
	if updatedAt != toMillis(campaignVersion) {
		return repositories.ErrStale
	}
	if err := checkNoSponsorships(ctx, tx, l.CampaignID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO layouts (id, campaign_id, layout_type, total_positions, grid_columns, max_sponsors, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.CampaignID, l.LayoutType, l.TotalPositions, l.Columns, l.MaxSponsors, toMillis(now), toMillis(now))
	if err != nil {
		return mapErr(err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO placements (layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range l.Placements {
		p := &l.Placements[i]
		p.LayoutID = l.ID
		if _, err := stmt.ExecContext(ctx, l.ID, p.PositionID, p.Row, p.Column, p.Section, p.Price, p.IsTaken, p.SponsorshipID); err != nil {
			return fmt.Errorf("insert placement %s: %w", p.PositionID, mapErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

func (r *LayoutRepo) GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.Layout, error) {
	var (
		l                    models.Layout
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, layout_type, total_positions, grid_columns, max_sponsors, created_at, updated_at
		FROM layouts WHERE campaign_id = ?
	`, campaignID).Scan(&l.ID, &l.CampaignID, &l.LayoutType, &l.TotalPositions, &l.Columns,
		&l.MaxSponsors, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	l.CreatedAt = fromMillis(createdAt)
	l.UpdatedAt = fromMillis(updatedAt)

	rows, err := r.db.QueryContext(ctx, `
		SELECT layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id
		FROM placements WHERE layout_id = ?
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
	return scanPlacement(r.db.QueryRowContext(ctx, `
		SELECT layout_id, position_id, row_num, col_num, section, price, is_taken, sponsorship_id
		FROM placements WHERE layout_id = ? AND position_id = ?
	`, layoutID, positionID))
}

func (r *LayoutRepo) Reserve(ctx context.Context, layoutID uuid.UUID, positionID string, sponsorshipID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE placements
		SET is_taken = 1, sponsorship_id = ?
		WHERE layout_id = ? AND position_id = ? AND is_taken = 0
	`, sponsorshipID, layoutID, positionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM placements WHERE layout_id = ? AND position_id = ?)
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
	res, err := r.db.ExecContext(ctx, `
		UPDATE placements SET is_taken = 0, sponsorship_id = NULL
		WHERE layout_id = ? AND position_id = ?
	`, layoutID, positionID)
	return affectedOne(res, err)
}

func (r *LayoutRepo) UpdatePrices(ctx context.Context, layoutID uuid.UUID, placements []models.Placement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var campaignID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT campaign_id FROM layouts WHERE id = ?`, layoutID).Scan(&campaignID)
	if err != nil {
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
	return tx.Commit()
}

func (r *LayoutRepo) ClearAll(ctx context.Context, layoutID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE placements SET is_taken = 0, sponsorship_id = NULL
		WHERE layout_id = ? AND is_taken = 1
	`, layoutID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
