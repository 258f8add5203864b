package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.OperationResult, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*usecase.OperationResult, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	SoftDeleteTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	SoftDeleteTransactionAt(ctx context.Context, userID string, index int) (*domain.Transaction, error)
	DeactivateAccount(ctx context.Context, userID string) error
	History(ctx context.Context, userID string) ([]*domain.Transaction, error)
	Balances(ctx context.Context, userID string) (map[string]decimal.Decimal, error)
}

// WalletHandler handles the caller's own wallet.
type WalletHandler struct {
	walletUC WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Deposit credits the caller's wallet.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.walletUC.Deposit(r.Context(), req.ToDepositInput(user))
	if err != nil {
		writeDomainError(w, "deposit failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromResult(result))
}

// Withdraw debits the caller's wallet.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.walletUC.Withdraw(r.Context(), req.ToWithdrawInput(user))
	if err != nil {
		writeDomainError(w, "withdrawal failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromResult(result))
}

// Transfer sends funds from the caller to another user.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.walletUC.Transfer(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, "transfer failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromTransfer(result))
}

// DeleteTransaction soft-deletes one of the caller's transactions by id or
// by history index.
func (h *WalletHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.DeleteTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var (
		tx  *domain.Transaction
		err error
	)
	if req.Index != nil {
		tx, err = h.walletUC.SoftDeleteTransactionAt(r.Context(), user, *req.Index)
	} else {
		tx, err = h.walletUC.SoftDeleteTransaction(r.Context(), user, req.ID)
	}
	if err != nil {
		writeDomainError(w, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		dto.MessageResponse
		Transaction *dto.TransactionResponse `json:"transaction"`
	}{
		MessageResponse: dto.MessageResponse{Message: "Transaction marked as deleted"},
		Transaction:     dto.TransactionFromDomain(tx),
	})
}

// History returns the caller's full transaction log, soft-deleted and
// flagged entries included.
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	txs, err := h.walletUC.History(r.Context(), user)
	if err != nil {
		writeDomainError(w, "failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{Transactions: dto.TransactionsFromDomain(txs)})
}

// Balance returns the caller's balances.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	balances, err := h.walletUC.Balances(r.Context(), user)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balances})
}

// DeleteAccount deactivates the caller's account.
func (h *WalletHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.walletUC.DeactivateAccount(r.Context(), user); err != nil {
		writeDomainError(w, "failed to delete account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Account marked as deleted"})
}
