package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account holds one user's balances and transaction log.
//
// Account is not safe for concurrent use; the directory serializes access
// with a per-account lock and hands out snapshots for reads.
type Account struct {
	UserID    string
	CreatedAt time.Time

	balances     map[string]decimal.Decimal
	transactions []*Transaction
	deleted      bool
}

// NewAccount creates an empty, active account.
func NewAccount(userID string, createdAt time.Time) *Account {
	return &Account{
		UserID:    userID,
		CreatedAt: createdAt,
		balances:  make(map[string]decimal.Decimal),
	}
}

// Generation identifies this incarnation of the user id. A re-registered
// account always has a later generation than the one it replaced.
func (a *Account) Generation() int64 {
	return a.CreatedAt.UnixNano()
}

// Balance returns the balance for currency. Absent currencies are zero.
func (a *Account) Balance(currency string) decimal.Decimal {
	return a.balances[currency]
}

// Balances returns a copy of all non-zero-keyed balances.
func (a *Account) Balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.balances))
	for cur, amt := range a.balances {
		out[cur] = amt
	}
	return out
}

// History returns the transaction log in insertion order. The returned
// slice is a copy; its elements are the live transactions.
func (a *Account) History() []*Transaction {
	out := make([]*Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// IsDeleted reports whether the account was deactivated.
func (a *Account) IsDeleted() bool {
	return a.deleted
}

// Deactivate marks the account inactive. Calling it again is a no-op.
func (a *Account) Deactivate() {
	a.deleted = true
}

// CanDebit checks that the account is active and holds at least amount.
func (a *Account) CanDebit(amount decimal.Decimal, currency string) error {
	if a.deleted {
		return ErrAccountInactive
	}
	if a.balances[currency].LessThan(amount) {
		return fmt.Errorf("%w: balance %s %s, requested %s",
			ErrInsufficientFunds, a.balances[currency].String(), currency, amount.String())
	}
	return nil
}

// Post applies the transaction's balance effect and appends it to the log.
// Nothing is changed when an error is returned.
func (a *Account) Post(tx *Transaction) error {
	if a.deleted {
		return ErrAccountInactive
	}
	if tx.Kind().IsDebit() {
		if err := a.CanDebit(tx.Amount(), tx.Currency()); err != nil {
			return err
		}
	}
	a.apply(tx)
	return nil
}

// PostTransfer applies both legs of a transfer. Both accounts are checked
// before either is mutated.
func PostTransfer(sender, recipient *Account, out, in *Transaction) error {
	if sender.deleted {
		return ErrAccountInactive
	}
	if recipient.deleted {
		return ErrInvalidRecipient
	}
	if err := sender.CanDebit(out.Amount(), out.Currency()); err != nil {
		return err
	}
	sender.apply(out)
	recipient.apply(in)
	return nil
}

func (a *Account) apply(tx *Transaction) {
	a.balances[tx.Currency()] = a.balances[tx.Currency()].Add(tx.SignedAmount())
	a.transactions = append(a.transactions, tx)
}

// SoftDelete marks the transaction with the given id as deleted.
// Deleting an already deleted transaction succeeds.
func (a *Account) SoftDelete(transactionID string) (*Transaction, error) {
	if a.deleted {
		return nil, ErrAccountInactive
	}
	for _, tx := range a.transactions {
		if tx.ID() == transactionID {
			tx.MarkDeleted()
			return tx, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
}

// SoftDeleteAt marks the transaction at position index as deleted.
func (a *Account) SoftDeleteAt(index int) (*Transaction, error) {
	if a.deleted {
		return nil, ErrAccountInactive
	}
	if index < 0 || index >= len(a.transactions) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, len(a.transactions))
	}
	tx := a.transactions[index]
	tx.MarkDeleted()
	return tx, nil
}

// ComputedBalances recomputes per-currency balances from the full log.
// Soft-deleted transactions are included because soft-delete never reverses
// a balance effect.
func (a *Account) ComputedBalances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, tx := range a.transactions {
		out[tx.Currency()] = out[tx.Currency()].Add(tx.SignedAmount())
	}
	return out
}

// ActiveTransactionCount returns the number of transactions not soft-deleted.
func (a *Account) ActiveTransactionCount() int {
	n := 0
	for _, tx := range a.transactions {
		if !tx.IsDeleted() {
			n++
		}
	}
	return n
}

// Snapshot returns a deep copy of the account.
func (a *Account) Snapshot() *Account {
	cp := &Account{
		UserID:       a.UserID,
		CreatedAt:    a.CreatedAt,
		balances:     a.Balances(),
		transactions: make([]*Transaction, len(a.transactions)),
		deleted:      a.deleted,
	}
	for i, tx := range a.transactions {
		cp.transactions[i] = tx.Clone()
	}
	return cp
}
