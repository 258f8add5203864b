package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
	To       string          `json:"to,omitempty"`
	From     string          `json:"from,omitempty"`
	Deleted  bool            `json:"deleted"`
	Flagged  bool            `json:"flagged"`
	Alerts   []string        `json:"alerts,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:       t.ID(),
		Type:     string(t.Kind()),
		Amount:   t.Amount(),
		Currency: t.Currency(),
		Date:     t.Timestamp(),
		Deleted:  t.IsDeleted(),
		Flagged:  t.IsFlagged(),
		Alerts:   t.Alerts(),
	}
	if cp, ok := t.Counterparty(); ok {
		switch t.Kind() {
		case domain.KindTransferOut:
			resp.To = cp
		case domain.KindTransferIn:
			resp.From = cp
		}
	}
	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// OperationResponse is returned by deposit, withdraw and transfer.
type OperationResponse struct {
	Transaction *TransactionResponse       `json:"transaction"`
	Balance     map[string]decimal.Decimal `json:"balance"`
}

// OperationFromResult converts a single-account result.
func OperationFromResult(r *usecase.OperationResult) *OperationResponse {
	return &OperationResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Balance:     r.Balances,
	}
}

// OperationFromTransfer converts a transfer result from the sender's view.
func OperationFromTransfer(r *usecase.TransferResult) *OperationResponse {
	return &OperationResponse{
		Transaction: TransactionFromDomain(r.Out),
		Balance:     r.SenderBalances,
	}
}

// BalanceResponse represents a user's balances.
type BalanceResponse struct {
	Balance map[string]decimal.Decimal `json:"balance"`
}

// HistoryResponse represents a user's visible transactions.
type HistoryResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by /login.
type TokenResponse struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// FlaggedAccountResponse lists one user's suspicious transactions.
type FlaggedAccountResponse struct {
	Username   string                 `json:"username"`
	Suspicious []*TransactionResponse `json:"suspicious"`
}

// FlaggedFromReport converts the flagged report.
func FlaggedFromReport(accounts []usecase.FlaggedAccount) []*FlaggedAccountResponse {
	result := make([]*FlaggedAccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = &FlaggedAccountResponse{
			Username:   a.UserID,
			Suspicious: TransactionsFromDomain(a.Transactions),
		}
	}
	return result
}

// UserRankingResponse is one entry of a top users list.
type UserRankingResponse struct {
	Username         string          `json:"username"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	TransactionCount int             `json:"transactionCount"`
}

// TopUsersResponse holds both rankings.
type TopUsersResponse struct {
	TopByBalance           []UserRankingResponse `json:"topByBalance"`
	TopByTransactionVolume []UserRankingResponse `json:"topByTransactionVolume"`
}

// TopUsersFromReport converts the top users report.
func TopUsersFromReport(r *usecase.TopUsersReport) *TopUsersResponse {
	return &TopUsersResponse{
		TopByBalance:           rankings(r.ByBalance),
		TopByTransactionVolume: rankings(r.ByTransactionCount),
	}
}

func rankings(in []usecase.UserRanking) []UserRankingResponse {
	out := make([]UserRankingResponse, len(in))
	for i, r := range in {
		out[i] = UserRankingResponse{
			Username:         r.UserID,
			TotalBalance:     r.TotalBalance,
			TransactionCount: r.TransactionCount,
		}
	}
	return out
}

// DiscrepancyResponse describes one currency that failed reconciliation.
type DiscrepancyResponse struct {
	Username   string          `json:"username"`
	Currency   string          `json:"currency"`
	Recorded   decimal.Decimal `json:"recorded"`
	Calculated decimal.Decimal `json:"calculated"`
	Difference decimal.Decimal `json:"difference"`
}

// ConsistencyResponse represents a reconciliation report.
type ConsistencyResponse struct {
	TotalAccounts      int                   `json:"total_accounts"`
	ReconciledAccounts int                   `json:"reconciled_accounts"`
	LedgerConsistent   bool                  `json:"ledger_consistent"`
	LedgerError        string                `json:"ledger_error,omitempty"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time             `json:"checked_at"`
}

// ConsistencyFromReport converts a reconciliation report.
func ConsistencyFromReport(r *usecase.ReconciliationReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		LedgerError:        r.LedgerError,
		Discrepancies:      make([]DiscrepancyResponse, 0, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	for _, d := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, DiscrepancyResponse{
			Username:   d.UserID,
			Currency:   d.Currency,
			Recorded:   d.RecordedBalance,
			Calculated: d.CalculatedBalance,
			Difference: d.Difference,
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
