package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type TransactionRepo struct {
	db *sql.DB
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := fromMillis(toMillis(time.Now()))
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, campaign_id, sponsorship_id, provider, provider_payment_id,
		                          amount, currency, status, failure_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.CampaignID, t.SponsorshipID, t.Provider, t.ProviderPaymentID,
		t.Amount, t.Currency, t.Status, t.FailureReason, toMillis(now))
	if err != nil {
		return mapErr(err)
	}
	t.CreatedAt = now
	return nil
}

func (r *TransactionRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, sponsorship_id, provider, provider_payment_id,
		       amount, currency, status, failure_reason, created_at
		FROM transactions WHERE campaign_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, campaignID, repositories.ClampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t         models.Transaction
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.SponsorshipID, &t.Provider, &t.ProviderPaymentID,
			&t.Amount, &t.Currency, &t.Status, &t.FailureReason, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = fromMillis(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}
