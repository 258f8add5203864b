package usecase

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// DefaultTopUsers is the ranking size used when n <= 0.
const DefaultTopUsers = 5

// ReportUseCase builds read-only administrative views over all accounts.
type ReportUseCase struct {
	directory AccountDirectory
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(directory AccountDirectory) *ReportUseCase {
	return &ReportUseCase{directory: directory}
}

// FlaggedAccount groups an account's visible flagged transactions.
type FlaggedAccount struct {
	UserID       string
	Transactions []*domain.Transaction
}

// UserRanking is one row of the top users report.
type UserRanking struct {
	UserID           string
	TotalBalance     decimal.Decimal
	TransactionCount int
}

// TopUsersReport holds both rankings.
type TopUsersReport struct {
	ByBalance          []UserRanking
	ByTransactionCount []UserRanking
}

// FlaggedReport returns, per active account, the flagged transactions that
// were not soft-deleted. Accounts without any are omitted.
func (uc *ReportUseCase) FlaggedReport(ctx context.Context) ([]FlaggedAccount, error) {
	accounts, err := uc.activeAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := make([]FlaggedAccount, 0)
	for _, acc := range accounts {
		var flagged []*domain.Transaction
		for _, tx := range acc.History() {
			if tx.IsFlagged() && !tx.IsDeleted() {
				flagged = append(flagged, tx)
			}
		}
		if len(flagged) > 0 {
			report = append(report, FlaggedAccount{UserID: acc.UserID, Transactions: flagged})
		}
	}

	return report, nil
}

// BalancesReport returns the balances of every active account.
func (uc *ReportUseCase) BalancesReport(ctx context.Context) (map[string]map[string]decimal.Decimal, error) {
	accounts, err := uc.activeAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := make(map[string]map[string]decimal.Decimal, len(accounts))
	for _, acc := range accounts {
		report[acc.UserID] = acc.Balances()
	}

	return report, nil
}

// TopUsers ranks active accounts by total balance and by visible
// transaction count. The total sums every currency without conversion.
// Ties keep registration order.
func (uc *ReportUseCase) TopUsers(ctx context.Context, n int) (*TopUsersReport, error) {
	if n <= 0 {
		n = DefaultTopUsers
	}

	accounts, err := uc.activeAccounts(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]UserRanking, 0, len(accounts))
	for _, acc := range accounts {
		total := decimal.Zero
		for _, bal := range acc.Balances() {
			total = total.Add(bal)
		}
		rows = append(rows, UserRanking{
			UserID:           acc.UserID,
			TotalBalance:     total,
			TransactionCount: acc.ActiveTransactionCount(),
		})
	}

	byBalance := make([]UserRanking, len(rows))
	copy(byBalance, rows)
	sort.SliceStable(byBalance, func(i, j int) bool {
		return byBalance[i].TotalBalance.GreaterThan(byBalance[j].TotalBalance)
	})

	byCount := make([]UserRanking, len(rows))
	copy(byCount, rows)
	sort.SliceStable(byCount, func(i, j int) bool {
		return byCount[i].TransactionCount > byCount[j].TransactionCount
	})

	return &TopUsersReport{
		ByBalance:          byBalance[:min(n, len(byBalance))],
		ByTransactionCount: byCount[:min(n, len(byCount))],
	}, nil
}

func (uc *ReportUseCase) activeAccounts(ctx context.Context) ([]*domain.Account, error) {
	all, err := uc.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*domain.Account, 0, len(all))
	for _, acc := range all {
		if !acc.IsDeleted() {
			active = append(active, acc)
		}
	}
	return active, nil
}
