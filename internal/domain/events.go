package domain

import "time"

// Event types
const (
	EventTypeTransactionFlagged = "transaction.flagged"
)

// FraudAlert is emitted once per flagging event, after the account lock is
// released. Transaction is a snapshot taken when the flag was set.
type FraudAlert struct {
	UserID      string
	Transaction *Transaction
	Reasons     []string
	DetectedAt  time.Time
}

// TransactionFlaggedEvent payload
type TransactionFlaggedEvent struct {
	UserID        string   `json:"user_id"`
	TransactionID string   `json:"transaction_id"`
	Kind          string   `json:"kind"`
	Amount        string   `json:"amount"`
	Currency      string   `json:"currency"`
	Counterparty  string   `json:"counterparty,omitempty"`
	Reasons       []string `json:"reasons"`
	OccurredAt    string   `json:"occurred_at"`
	DetectedAt    string   `json:"detected_at"`
}

// Payload builds the serializable form of the alert.
func (a FraudAlert) Payload() TransactionFlaggedEvent {
	p := TransactionFlaggedEvent{
		UserID:     a.UserID,
		Reasons:    a.Reasons,
		DetectedAt: a.DetectedAt.UTC().Format(time.RFC3339Nano),
	}
	if tx := a.Transaction; tx != nil {
		p.TransactionID = tx.ID()
		p.Kind = string(tx.Kind())
		p.Amount = tx.Amount().String()
		p.Currency = tx.Currency()
		p.OccurredAt = tx.Timestamp().UTC().Format(time.RFC3339Nano)
		if cp, ok := tx.Counterparty(); ok {
			p.Counterparty = cp
		}
	}
	return p
}
