package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// MockAccountDirectory is a function-field mock of usecase.AccountDirectory.
// Unset functions fall back to a plain map.
type MockAccountDirectory struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	CreateFunc func(ctx context.Context, userID string) (*domain.Account, error)
	GetFunc    func(ctx context.Context, userID string) (*domain.Account, error)
	ListFunc   func(ctx context.Context) ([]*domain.Account, error)
	UpdateFunc func(ctx context.Context, userIDs []string, fn func(map[string]*domain.Account) error) error
}

func NewMockAccountDirectory() *MockAccountDirectory {
	return &MockAccountDirectory{
		accounts: make(map[string]*domain.Account),
	}
}

// Put inserts an account directly.
func (m *MockAccountDirectory) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.UserID] = account
}

func (m *MockAccountDirectory) Create(ctx context.Context, userID string) (*domain.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[userID]; ok && !acc.IsDeleted() {
		return nil, domain.ErrAlreadyExists
	}
	acc := domain.NewAccount(userID, testTime)
	m.accounts[userID] = acc
	return acc.Snapshot(), nil
}

func (m *MockAccountDirectory) Get(ctx context.Context, userID string) (*domain.Account, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[userID]; ok {
		return acc.Snapshot(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountDirectory) List(ctx context.Context) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Account
	for _, acc := range m.accounts {
		out = append(out, acc.Snapshot())
	}
	return out, nil
}

func (m *MockAccountDirectory) Update(ctx context.Context, userIDs []string, fn func(map[string]*domain.Account) error) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userIDs, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*domain.Account)
	for _, id := range userIDs {
		if acc, ok := m.accounts[id]; ok {
			found[id] = acc
		}
	}
	return fn(found)
}

// MockIDGenerator generates sequential ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int
	Prefix  string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{Prefix: "tx"}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s-%04d", m.Prefix, m.counter)
}

// MockLedgerMetrics records observations.
type MockLedgerMetrics struct {
	mu            sync.Mutex
	Operations    map[string]int
	Errors        map[string]int
	Flagged       map[string]int
	FraudFailures int
	Registrations int
}

func NewMockLedgerMetrics() *MockLedgerMetrics {
	return &MockLedgerMetrics{
		Operations: make(map[string]int),
		Errors:     make(map[string]int),
		Flagged:    make(map[string]int),
	}
}

func (m *MockLedgerMetrics) ObserveOperation(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.Errors[op]++
		return
	}
	m.Operations[op]++
}

func (m *MockLedgerMetrics) ObserveFlagged(reasons []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reasons {
		m.Flagged[r]++
	}
}

func (m *MockLedgerMetrics) ObserveFraudFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FraudFailures++
}

func (m *MockLedgerMetrics) ObserveRegistration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Registrations++
}

// RecordingDispatcher keeps every dispatched alert.
type RecordingDispatcher struct {
	mu     sync.Mutex
	alerts []domain.FraudAlert
}

func (r *RecordingDispatcher) Dispatch(alert domain.FraudAlert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

// Alerts returns the dispatched alerts in order.
func (r *RecordingDispatcher) Alerts() []domain.FraudAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FraudAlert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// PanickingDetector fails every evaluation.
type PanickingDetector struct{}

func (PanickingDetector) Evaluate([]*domain.Transaction, *domain.Transaction, time.Time) []string {
	panic("detector exploded")
}
