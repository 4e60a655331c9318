package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
)

type CampaignRepo struct {
	db *sql.DB
}

const campaignColumns = `id, organizer_id, title, slug, description, campaign_type, pricing_config,
	currency, is_closed, end_date, enable_stripe_payments, allow_offline_payments, created_at, updated_at`

func scanCampaign(row scanner) (*models.Campaign, error) {
	var (
		c                    models.Campaign
		raw                  string
		endDate              sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.OrganizerID, &c.Title, &c.Slug, &c.Description, &c.CampaignType, &raw,
		&c.Currency, &c.IsClosed, &endDate, &c.EnableStripePayments, &c.AllowOfflinePayments,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	cfg, err := pricing.DecodeConfig(c.CampaignType, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("campaign %s pricing config: %w", c.ID, err)
	}
	c.PricingConfig = cfg
	c.EndDate = timePtr(endDate)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	raw, err := pricing.EncodeConfig(c.PricingConfig)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, organizer_id, title, slug, description, campaign_type, pricing_config,
		                       currency, is_closed, end_date, enable_stripe_payments, allow_offline_payments,
		                       created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.OrganizerID, c.Title, c.Slug, c.Description, c.CampaignType, string(raw),
		c.Currency, c.IsClosed, nullMillis(c.EndDate), c.EnableStripePayments, c.AllowOfflinePayments,
		toMillis(now), toMillis(now))
	if err != nil {
		return mapErr(err)
	}
	c.CreatedAt = fromMillis(toMillis(now))
	c.UpdatedAt = c.CreatedAt
	return nil
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
}

func (r *CampaignRepo) GetBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	return scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE slug = ?`, slug))
}

func (r *CampaignRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM campaigns WHERE slug = ?)`, slug).Scan(&exists)
	return exists, err
}

func (r *CampaignRepo) List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	where := []string{}

	if f.OrganizerID != nil {
		where = append(where, "organizer_id = ?")
		args = append(args, *f.OrganizerID)
	}
	if f.IsClosed != nil {
		where = append(where, "is_closed = ?")
		args = append(args, *f.IsClosed)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, repositories.ClampLimit(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockCampaign(ctx, tx, c.ID); err != nil {
		return err
	}
	var currency string
	if err := tx.QueryRowContext(ctx, `SELECT currency FROM campaigns WHERE id = ?`, c.ID).Scan(&currency); err != nil {
		return mapErr(err)
	}
	if currency != c.Currency {
		if err := checkNoSponsorships(ctx, tx, c.ID); err != nil {
			return err
		}
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE campaigns SET title = ?, description = ?, currency = ?, end_date = ?,
		       enable_stripe_payments = ?, allow_offline_payments = ?, updated_at = ?
		WHERE id = ?
	`, c.Title, c.Description, c.Currency, nullMillis(c.EndDate),
		c.EnableStripePayments, c.AllowOfflinePayments, toMillis(now), c.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.UpdatedAt = fromMillis(toMillis(now))
	return nil
}

func (r *CampaignRepo) UpdatePricing(ctx context.Context, u repositories.PricingUpdate) error {
	raw, err := pricing.EncodeConfig(u.Config)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockCampaign(ctx, tx, u.CampaignID); err != nil {
		return err
	}
	if err := checkNoSponsorships(ctx, tx, u.CampaignID); err != nil {
		return err
	}
	layoutID, err := layoutIDOf(ctx, tx, u.CampaignID)
	if err != nil {
		return err
	}
	if !sameLayout(layoutID, u.LayoutID) {
		return repositories.ErrStale
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE campaigns SET campaign_type = ?, pricing_config = ?, updated_at = MAX(?, updated_at + 1)
		WHERE id = ?
	`, u.CampaignType, string(raw), toMillis(time.Now()), u.CampaignID)
	if err != nil {
		return err
	}
	if layoutID != nil && len(u.Placements) > 0 {
		if err := updatePlacementPrices(ctx, tx, *layoutID, u.Placements); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CampaignRepo) Close(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET is_closed = 1, updated_at = ?
		WHERE id = ? AND is_closed = 0
	`, toMillis(time.Now()), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockCampaign(ctx, tx, id); err != nil {
		return err
	}
	if err := checkNoSponsorships(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func sameLayout(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// affectedOne turns an update that matched nothing into ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
