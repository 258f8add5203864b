package usecase

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// AccountDirectory maps user ids to accounts and owns their locks.
type AccountDirectory interface {
	// Create registers a fresh account. It fails with ErrAlreadyExists when
	// an active account holds the id; a deactivated one is replaced.
	Create(ctx context.Context, userID string) (*domain.Account, error)
	// Get returns a snapshot of the account.
	Get(ctx context.Context, userID string) (*domain.Account, error)
	// List returns snapshots of every account in registration order.
	List(ctx context.Context) ([]*domain.Account, error)
	// Update locks the named accounts in sorted order and calls fn with the
	// live accounts that exist. Unknown ids are absent from the map.
	Update(ctx context.Context, userIDs []string, fn func(accounts map[string]*domain.Account) error) error
}

// FraudDetector evaluates a candidate transaction against account history.
type FraudDetector interface {
	Evaluate(history []*domain.Transaction, candidate *domain.Transaction, now time.Time) []string
}

// AlertDispatcher receives flagged transactions. Dispatch must not block.
type AlertDispatcher interface {
	Dispatch(alert domain.FraudAlert)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// LedgerMetrics records ledger activity.
type LedgerMetrics interface {
	ObserveOperation(op string, err error)
	ObserveFlagged(reasons []string)
	ObserveFraudFailure()
	ObserveRegistration()
}

// CredentialStore keeps login credentials.
type CredentialStore interface {
	Save(ctx context.Context, creds *domain.Credentials) error
	Get(ctx context.Context, username string) (*domain.Credentials, error)
}

// TokenIssuer issues access tokens.
type TokenIssuer interface {
	Generate(userID string, role domain.Role, generation int64) (string, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes a key whose request did not complete successfully.
	Release(ctx context.Context, key string) error
}

// Operation names reported to LedgerMetrics.
const (
	OpDeposit           = "deposit"
	OpWithdraw          = "withdraw"
	OpTransfer          = "transfer"
	OpSoftDelete        = "soft_delete"
	OpDeactivateAccount = "deactivate_account"
	OpRegister          = "register"
)

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveOperation(string, error) {}
func (NopMetrics) ObserveFlagged([]string)        {}
func (NopMetrics) ObserveFraudFailure()           {}
func (NopMetrics) ObserveRegistration()           {}

// NopDispatcher drops every alert.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(domain.FraudAlert) {}
