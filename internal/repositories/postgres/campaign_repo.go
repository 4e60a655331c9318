package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `id, organizer_id, title, slug, description, campaign_type, pricing_config,
	currency, is_closed, end_date, enable_stripe_payments, allow_offline_payments, created_at, updated_at`

func scanCampaign(row scanner) (*models.Campaign, error) {
	var (
		c   models.Campaign
		raw []byte
	)
	err := row.Scan(&c.ID, &c.OrganizerID, &c.Title, &c.Slug, &c.Description, &c.CampaignType, &raw,
		&c.Currency, &c.IsClosed, &c.EndDate, &c.EnableStripePayments, &c.AllowOfflinePayments,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	cfg, err := pricing.DecodeConfig(c.CampaignType, raw)
	if err != nil {
		return nil, fmt.Errorf("campaign %s pricing config: %w", c.ID, err)
	}
	c.PricingConfig = cfg
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
	err = r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, organizer_id, title, slug, description, campaign_type, pricing_config,
		                       currency, is_closed, end_date, enable_stripe_payments, allow_offline_payments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, c.ID, c.OrganizerID, c.Title, c.Slug, c.Description, c.CampaignType, raw,
		c.Currency, c.IsClosed, c.EndDate, c.EnableStripePayments, c.AllowOfflinePayments,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

func (r *CampaignRepo) GetBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE slug = $1`, slug))
}

func (r *CampaignRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM campaigns WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *CampaignRepo) List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.OrganizerID != nil {
		where = append(where, fmt.Sprintf("organizer_id = $%d", argIdx))
		args = append(args, *f.OrganizerID)
		argIdx++
	}
	if f.IsClosed != nil {
		where = append(where, fmt.Sprintf("is_closed = $%d", argIdx))
		args = append(args, *f.IsClosed)
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, repositories.ClampLimit(f.Limit), f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
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
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockCampaign(ctx, tx, c.ID); err != nil {
		return err
	}
	var currency string
	if err := tx.QueryRow(ctx, `SELECT currency FROM campaigns WHERE id = $1`, c.ID).Scan(&currency); err != nil {
		return mapErr(err)
	}
	if currency != c.Currency {
		if err := checkNoSponsorships(ctx, tx, c.ID); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE campaigns SET title = $1, description = $2, currency = $3, end_date = $4,
		       enable_stripe_payments = $5, allow_offline_payments = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at
	`, c.Title, c.Description, c.Currency, c.EndDate,
		c.EnableStripePayments, c.AllowOfflinePayments, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

func (r *CampaignRepo) UpdatePricing(ctx context.Context, u repositories.PricingUpdate) error {
	raw, err := pricing.EncodeConfig(u.Config)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

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

	_, err = tx.Exec(ctx, `
		UPDATE campaigns
		SET campaign_type = $1, pricing_config = $2,
		    updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
		WHERE id = $3
	`, u.CampaignType, raw, u.CampaignID)
	if err != nil {
		return err
	}
	if layoutID != nil && len(u.Placements) > 0 {
		if err := updatePlacementPrices(ctx, tx, *layoutID, u.Placements); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *CampaignRepo) Close(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET is_closed = true, updated_at = now()
		WHERE id = $1 AND is_closed = false
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockCampaign(ctx, tx, id); err != nil {
		return err
	}
	if err := checkNoSponsorships(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
