package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/repositories"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, campaign_id, sponsorship_id, provider, provider_payment_id,
		                          amount, currency, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, t.ID, t.CampaignID, t.SponsorshipID, t.Provider, t.ProviderPaymentID,
		t.Amount, t.Currency, t.Status, t.FailureReason,
	).Scan(&t.CreatedAt)
}

func (r *TransactionRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, sponsorship_id, provider, provider_payment_id,
		       amount, currency, status, failure_reason, created_at
		FROM transactions WHERE campaign_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, campaignID, repositories.ClampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.SponsorshipID, &t.Provider, &t.ProviderPaymentID,
			&t.Amount, &t.Currency, &t.Status, &t.FailureReason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
