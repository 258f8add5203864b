package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when stored balances disagree with the transaction logs.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	directory AccountDirectory
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(directory AccountDirectory) *ReconciliationUseCase {
	return &ReconciliationUseCase{directory: directory}
}

// ReconciliationResult represents the result of a reconciliation check for
// one currency of one account
type ReconciliationResult struct {
	UserID            string
	Currency          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount recomputes an account's balances from its log
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, userID string) ([]*ReconciliationResult, error) {
	account, err := uc.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return reconcile(account, time.Now().UTC()), nil
}

// ReconcileAllAccounts reconciles all accounts in the system, deactivated ones included
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	accounts, err := uc.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var results []*ReconciliationResult
	for _, account := range accounts {
		results = append(results, reconcile(account, now)...)
	}

	return results, nil
}

func reconcile(account *domain.Account, now time.Time) []*ReconciliationResult {
	recorded := account.Balances()
	calculated := account.ComputedBalances()

	currencies := make([]string, 0, len(recorded))
	for cur := range recorded {
		currencies = append(currencies, cur)
	}
	for cur := range calculated {
		if _, ok := recorded[cur]; !ok {
			currencies = append(currencies, cur)
		}
	}
	sort.Strings(currencies)

	results := make([]*ReconciliationResult, 0, len(currencies))
	for _, cur := range currencies {
		diff := recorded[cur].Sub(calculated[cur])
		results = append(results, &ReconciliationResult{
			UserID:            account.UserID,
			Currency:          cur,
			RecordedBalance:   recorded[cur],
			CalculatedBalance: calculated[cur],
			Difference:        diff,
			IsReconciled:      diff.IsZero() && !recorded[cur].IsNegative(),
			LastChecked:       now,
		})
	}
	return results
}

// CheckLedgerConsistency verifies, per currency, that the sum of balances
// equals deposits minus withdrawals and that transfer legs cancel out
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	accounts, err := uc.directory.List(ctx)
	if err != nil {
		return err
	}

	type totals struct {
		balances, external, transferOut, transferIn decimal.Decimal
	}
	byCurrency := make(map[string]*totals)
	get := func(cur string) *totals {
		t, ok := byCurrency[cur]
		if !ok {
			t = &totals{}
			byCurrency[cur] = t
		}
		return t
	}

	for _, account := range accounts {
		for cur, bal := range account.Balances() {
			t := get(cur)
			t.balances = t.balances.Add(bal)
		}
		for _, tx := range account.History() {
			t := get(tx.Currency())
			switch tx.Kind() {
			case domain.KindDeposit, domain.KindWithdraw:
				t.external = t.external.Add(tx.SignedAmount())
			case domain.KindTransferOut:
				t.transferOut = t.transferOut.Add(tx.Amount())
			case domain.KindTransferIn:
				t.transferIn = t.transferIn.Add(tx.Amount())
			}
		}
	}

	currencies := make([]string, 0, len(byCurrency))
	for cur := range byCurrency {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	for _, cur := range currencies {
		t := byCurrency[cur]
		if !t.transferOut.Equal(t.transferIn) {
			return fmt.Errorf("%w: %s transfers out=%s in=%s",
				ErrInconsistentLedger, cur, t.transferOut.String(), t.transferIn.String())
		}
		if !t.balances.Equal(t.external) {
			return fmt.Errorf("%w: %s balances=%s deposits-withdrawals=%s difference=%s",
				ErrInconsistentLedger, cur, t.balances.String(), t.external.String(),
				t.balances.Sub(t.external).String())
		}
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	LedgerError        string
	CheckedAt          time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	accounts, err := uc.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, account := range accounts {
		ok := true
		for _, result := range reconcile(account, report.CheckedAt) {
			if !result.IsReconciled {
				ok = false
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}
		if ok {
			report.ReconciledAccounts++
		}
	}

	// Check ledger consistency
	if ledgerErr := uc.CheckLedgerConsistency(ctx); ledgerErr != nil {
		if !errors.Is(ledgerErr, ErrInconsistentLedger) {
			return nil, ledgerErr
		}
		report.LedgerError = ledgerErr.Error()
	} else {
		report.LedgerConsistent = true
	}

	return report, nil
}
