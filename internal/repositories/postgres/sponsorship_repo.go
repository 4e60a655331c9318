package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type SponsorshipRepo struct {
	pool *pgxpool.Pool
}

func NewSponsorshipRepo(pool *pgxpool.Pool) *SponsorshipRepo {
	return &SponsorshipRepo{pool: pool}
}

const sponsorshipColumns = `id, campaign_id, position_id, sponsor_name, sponsor_email, sponsor_phone, message,
	sponsor_type, logo_url, amount, payment_method, payment_status, payment_intent_id,
	display_size, font_size, logo_width, paid_at, created_at, updated_at`

func scanSponsorship(row scanner) (*models.Sponsorship, error) {
	var s models.Sponsorship
	err := row.Scan(&s.ID, &s.CampaignID, &s.PositionID, &s.SponsorName, &s.SponsorEmail, &s.SponsorPhone,
		&s.Message, &s.SponsorType, &s.LogoURL, &s.Amount, &s.PaymentMethod, &s.PaymentStatus,
		&s.PaymentIntentID, &s.DisplaySize, &s.FontSize, &s.LogoWidth, &s.PaidAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *SponsorshipRepo) Create(ctx context.Context, s *models.Sponsorship) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sponsorships (id, campaign_id, position_id, sponsor_name, sponsor_email, sponsor_phone, message,
		                          sponsor_type, logo_url, amount, payment_method, payment_status, payment_intent_id,
		                          display_size, font_size, logo_width, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`, s.ID, s.CampaignID, s.PositionID, s.SponsorName, s.SponsorEmail, s.SponsorPhone, s.Message,
		s.SponsorType, s.LogoURL, s.Amount, s.PaymentMethod, s.PaymentStatus, s.PaymentIntentID,
		s.DisplaySize, s.FontSize, s.LogoWidth, s.PaidAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapErr(err)
}

func (r *SponsorshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sponsorship, error) {
	return scanSponsorship(r.pool.QueryRow(ctx, `SELECT `+sponsorshipColumns+` FROM sponsorships WHERE id = $1`, id))
}

func (r *SponsorshipRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Sponsorship, error) {
	return scanSponsorship(r.pool.QueryRow(ctx,
		`SELECT `+sponsorshipColumns+` FROM sponsorships WHERE payment_intent_id = $1`, paymentIntentID))
}

func (r *SponsorshipRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sponsorships WHERE campaign_id = $1`, campaignID).Scan(&n)
	return n, err
}

func (r *SponsorshipRepo) List(ctx context.Context, f repositories.SponsorshipFilter) ([]models.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE campaign_id = $1`
	args := []any{f.CampaignID}
	argIdx := 2

	if f.Status != nil {
		query += fmt.Sprintf(" AND payment_status = $%d", argIdx)
		args = append(args, *f.Status)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, repositories.ClampLimit(f.Limit), f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Sponsorship
	for rows.Next() {
		s, err := scanSponsorship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SponsorshipRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sponsorships SET payment_status = 'paid', paid_at = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'
	`, id, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
