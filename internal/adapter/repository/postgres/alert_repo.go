package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gowallet/internal/domain"
)

const insertFraudAlert = `
INSERT INTO fraud_alerts (
    user_id, transaction_id, kind, amount, currency, counterparty,
    reasons, payload, occurred_at, detected_at
) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10)
ON CONFLICT (transaction_id) DO NOTHING`

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AlertRepository persists fraud alerts. It implements alerting.Sink.
type AlertRepository struct {
	db      DBTX
	retrier *Retrier
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db DBTX, retrier *Retrier) *AlertRepository {
	return &AlertRepository{db: db, retrier: retrier}
}

// Deliver stores the alert. Re-delivering the same transaction is a no-op.
func (r *AlertRepository) Deliver(ctx context.Context, alert domain.FraudAlert) error {
	if alert.Transaction == nil {
		return fmt.Errorf("fraud alert for %s has no transaction", alert.UserID)
	}

	p := alert.Payload()
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}

	var counterparty *string
	if p.Counterparty != "" {
		counterparty = &p.Counterparty
	}

	insert := func() error {
		_, err := r.db.Exec(ctx, insertFraudAlert,
			p.UserID,
			p.TransactionID,
			p.Kind,
			p.Amount,
			p.Currency,
			counterparty,
			p.Reasons,
			payload,
			alert.Transaction.Timestamp(),
			alert.DetectedAt,
		)
		return err
	}

	if r.retrier == nil {
		return insert()
	}
	return r.retrier.Retry(ctx, insert)
}
