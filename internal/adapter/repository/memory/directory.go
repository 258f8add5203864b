// Package memory holds the process-local stores backing the wallet ledger.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	account *domain.Account
}

// AccountDirectory implements usecase.AccountDirectory in memory.
//
// The map is guarded by mu; each account is guarded by its entry lock.
// Lock order is always mu (briefly, to resolve entries) then entry locks in
// ascending user id order.
type AccountDirectory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	now     func() time.Time
}

// NewAccountDirectory creates an empty directory.
func NewAccountDirectory() *AccountDirectory {
	return &AccountDirectory{
		entries: make(map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a fresh account. A deactivated account with the same id
// is replaced and keeps its place in iteration order.
func (d *AccountDirectory) Create(_ context.Context, userID string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	account := domain.NewAccount(userID, d.now())

	if e, ok := d.entries[userID]; ok {
		e.mu.Lock()
		defer e.mu.Unlock()

		if !e.account.IsDeleted() {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, userID)
		}
		if !account.CreatedAt.After(e.account.CreatedAt) {
			account.CreatedAt = e.account.CreatedAt.Add(time.Nanosecond)
		}
		e.account = account
		return account.Snapshot(), nil
	}

	d.entries[userID] = &entry{account: account}
	d.order = append(d.order, userID)
	return account.Snapshot(), nil
}

// Get returns a snapshot of the account.
func (d *AccountDirectory) Get(_ context.Context, userID string) (*domain.Account, error) {
	d.mu.RLock()
	e, ok := d.entries[userID]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, userID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.account.Snapshot(), nil
}

// List returns snapshots of every account in registration order. Each
// snapshot is consistent on its own; the list is not a global snapshot.
func (d *AccountDirectory) List(_ context.Context) ([]*domain.Account, error) {
	d.mu.RLock()
	entries := make([]*entry, 0, len(d.order))
	for _, id := range d.order {
		entries = append(entries, d.entries[id])
	}
	d.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		accounts = append(accounts, e.account.Snapshot())
		e.mu.Unlock()
	}

	return accounts, nil
}

// Update locks the named accounts in sorted order and passes the live
// accounts to fn. Duplicate ids are locked once; unknown ids are left out
// of the map.
func (d *AccountDirectory) Update(_ context.Context, userIDs []string, fn func(map[string]*domain.Account) error) error {
	ids := uniqueSorted(userIDs)

	d.mu.RLock()
	locked := make([]*entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := d.entries[id]; ok {
			locked = append(locked, e)
		}
	}
	d.mu.RUnlock()

	for _, e := range locked {
		e.mu.Lock()
	}
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}()

	accounts := make(map[string]*domain.Account, len(locked))
	for _, e := range locked {
		accounts[e.account.UserID] = e.account
	}

	return fn(accounts)
}

// Len returns the number of registered ids, deactivated included.
func (d *AccountDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
