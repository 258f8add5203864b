package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies what a transaction did to the account balance.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdraw    Kind = "withdraw"
	KindTransferOut Kind = "transfer-out"
	KindTransferIn  Kind = "transfer-in"
)

// IsDebit reports whether the kind decreases the balance.
func (k Kind) IsDebit() bool {
	return k == KindWithdraw || k == KindTransferOut
}

// IsTransfer reports whether the kind is one leg of a transfer.
func (k Kind) IsTransfer() bool {
	return k == KindTransferOut || k == KindTransferIn
}

// Transaction is a single balance-affecting event in an account log.
//
// The identity fields are set by the constructors and never change. A
// counterparty exists only on transfer legs. The deleted and flagged markers
// only ever move from false to true.
type Transaction struct {
	id           string
	kind         Kind
	amount       decimal.Decimal
	currency     string
	timestamp    time.Time
	counterparty string

	deleted bool
	flagged bool
	alerts  []string
}

// NewDeposit creates a deposit transaction.
func NewDeposit(id string, amount decimal.Decimal, currency string, at time.Time) *Transaction {
	return &Transaction{id: id, kind: KindDeposit, amount: amount, currency: currency, timestamp: at}
}

// NewWithdrawal creates a withdraw transaction.
func NewWithdrawal(id string, amount decimal.Decimal, currency string, at time.Time) *Transaction {
	return &Transaction{id: id, kind: KindWithdraw, amount: amount, currency: currency, timestamp: at}
}

// NewTransferLegs creates the sender and recipient legs of a transfer.
// Both legs share the amount, currency and timestamp.
func NewTransferLegs(outID, inID, from, to string, amount decimal.Decimal, currency string, at time.Time) (out, in *Transaction) {
	out = &Transaction{
		id:           outID,
		kind:         KindTransferOut,
		amount:       amount,
		currency:     currency,
		timestamp:    at,
		counterparty: to,
	}
	in = &Transaction{
		id:           inID,
		kind:         KindTransferIn,
		amount:       amount,
		currency:     currency,
		timestamp:    at,
		counterparty: from,
	}
	return out, in
}

func (t *Transaction) ID() string              { return t.id }
func (t *Transaction) Kind() Kind              { return t.kind }
func (t *Transaction) Amount() decimal.Decimal { return t.amount }
func (t *Transaction) Currency() string        { return t.currency }
func (t *Transaction) Timestamp() time.Time    { return t.timestamp }
func (t *Transaction) IsDeleted() bool         { return t.deleted }
func (t *Transaction) IsFlagged() bool         { return t.flagged }

// Counterparty returns the other side of a transfer leg. The recipient for
// transfer-out, the sender for transfer-in; ok is false for other kinds.
func (t *Transaction) Counterparty() (userID string, ok bool) {
	if !t.kind.IsTransfer() {
		return "", false
	}
	return t.counterparty, true
}

// Alerts returns a copy of the fraud alert reasons.
func (t *Transaction) Alerts() []string {
	if len(t.alerts) == 0 {
		return nil
	}
	out := make([]string, len(t.alerts))
	copy(out, t.alerts)
	return out
}

// SignedAmount returns the amount with the sign of its balance effect.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.kind.IsDebit() {
		return t.amount.Neg()
	}
	return t.amount
}

// MarkDeleted soft-deletes the transaction. It never touches balances.
func (t *Transaction) MarkDeleted() {
	t.deleted = true
}

// Flag records fraud alert reasons. It returns false when there is nothing to
// record or the transaction was already flagged.
func (t *Transaction) Flag(reasons []string) bool {
	if t.flagged || len(reasons) == 0 {
		return false
	}
	t.flagged = true
	t.alerts = make([]string, len(reasons))
	copy(t.alerts, reasons)
	return true
}

// Clone returns a deep copy safe to hand out of a critical section.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.alerts = t.Alerts()
	return &cp
}
