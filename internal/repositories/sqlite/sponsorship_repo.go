package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type SponsorshipRepo struct {
	db *sql.DB
}

const sponsorshipColumns = `id, campaign_id, position_id, sponsor_name, sponsor_email, sponsor_phone, message,
	sponsor_type, logo_url, amount, payment_method, payment_status, payment_intent_id,
	display_size, font_size, logo_width, paid_at, created_at, updated_at`

func scanSponsorship(row scanner) (*models.Sponsorship, error) {
	var (
		s                    models.Sponsorship
		paidAt               sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&s.ID, &s.CampaignID, &s.PositionID, &s.SponsorName, &s.SponsorEmail, &s.SponsorPhone,
		&s.Message, &s.SponsorType, &s.LogoURL, &s.Amount, &s.PaymentMethod, &s.PaymentStatus,
		&s.PaymentIntentID, &s.DisplaySize, &s.FontSize, &s.LogoWidth, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	s.PaidAt = timePtr(paidAt)
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	return &s, nil
}

func (r *SponsorshipRepo) Create(ctx context.Context, s *models.Sponsorship) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := fromMillis(toMillis(time.Now()))
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sponsorships (id, campaign_id, position_id, sponsor_name, sponsor_email, sponsor_phone, message,
		                          sponsor_type, logo_url, amount, payment_method, payment_status, payment_intent_id,
		                          display_size, font_size, logo_width, paid_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.CampaignID, s.PositionID, s.SponsorName, s.SponsorEmail, s.SponsorPhone, s.Message,
		s.SponsorType, s.LogoURL, s.Amount, s.PaymentMethod, s.PaymentStatus, s.PaymentIntentID,
		s.DisplaySize, s.FontSize, s.LogoWidth, nullMillis(s.PaidAt), toMillis(now), toMillis(now))
	if err != nil {
		return mapErr(err)
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func (r *SponsorshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sponsorship, error) {
	return scanSponsorship(r.db.QueryRowContext(ctx, `SELECT `+sponsorshipColumns+` FROM sponsorships WHERE id = ?`, id))
}

func (r *SponsorshipRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Sponsorship, error) {
	return scanSponsorship(r.db.QueryRowContext(ctx,
		`SELECT `+sponsorshipColumns+` FROM sponsorships WHERE payment_intent_id = ?`, paymentIntentID))
}

func (r *SponsorshipRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sponsorships WHERE campaign_id = ?`, campaignID).Scan(&n)
	return n, err
}

func (r *SponsorshipRepo) List(ctx context.Context, f repositories.SponsorshipFilter) ([]models.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE campaign_id = ?`
	args := []any{f.CampaignID}
	if f.Status != nil {
		query += " AND payment_status = ?"
		args = append(args, *f.Status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, repositories.ClampLimit(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	res, err := r.db.ExecContext(ctx, `
		UPDATE sponsorships SET payment_status = 'paid', paid_at = ?, updated_at = ?
		WHERE id = ? AND payment_status = 'pending'
	`, toMillis(paidAt), toMillis(time.Now()), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
