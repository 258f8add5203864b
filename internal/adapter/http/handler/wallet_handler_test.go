package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

var handlerTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type walletServiceStub struct {
	depositFn    func(ctx context.Context, input usecase.DepositInput) (*usecase.OperationResult, error)
	withdrawFn   func(ctx context.Context, input usecase.WithdrawInput) (*usecase.OperationResult, error)
	transferFn   func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	deleteByIDFn func(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	deleteAtFn   func(ctx context.Context, userID string, index int) (*domain.Transaction, error)
	deactivateFn func(ctx context.Context, userID string) error
	historyFn    func(ctx context.Context, userID string) ([]*domain.Transaction, error)
	balancesFn   func(ctx context.Context, userID string) (map[string]decimal.Decimal, error)
}

func (s *walletServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.OperationResult, error) {
	return s.depositFn(ctx, input)
}

func (s *walletServiceStub) Withdraw(ctx context.Context, input usecase.WithdrawInput) (*usecase.OperationResult, error) {
	return s.withdrawFn(ctx, input)
}

func (s *walletServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
	return s.transferFn(ctx, input)
}

func (s *walletServiceStub) SoftDeleteTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return s.deleteByIDFn(ctx, userID, transactionID)
}

func (s *walletServiceStub) SoftDeleteTransactionAt(ctx context.Context, userID string, index int) (*domain.Transaction, error) {
	return s.deleteAtFn(ctx, userID, index)
}

func (s *walletServiceStub) DeactivateAccount(ctx context.Context, userID string) error {
	return s.deactivateFn(ctx, userID)
}

func (s *walletServiceStub) History(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return s.historyFn(ctx, userID)
}

func (s *walletServiceStub) Balances(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	return s.balancesFn(ctx, userID)
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	return req.WithContext(middleware.WithPrincipal(req.Context(), &middleware.Principal{Username: "alice", Role: domain.RoleUser}))
}

func TestWalletHandler_Deposit_Success(t *testing.T) {
	var captured usecase.DepositInput
	h := NewWalletHandler(&walletServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*usecase.OperationResult, error) {
			captured = input
			return &usecase.OperationResult{
				Transaction: domain.NewDeposit("tx-1", input.Amount, input.Currency, handlerTime),
				Balances:    map[string]decimal.Decimal{"USD": decimal.NewFromInt(100)},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Deposit(rec, authedRequest(http.MethodPost, "/wallet/deposit", `{"amount": 100}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", captured.UserID)
	assert.Equal(t, "USD", captured.Currency)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(100)))

	var resp struct {
		Transaction struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"transaction"`
		Balance map[string]string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tx-1", resp.Transaction.ID)
	assert.Equal(t, "deposit", resp.Transaction.Type)
	assert.Equal(t, "100", resp.Balance["USD"])
}

func TestWalletHandler_RequiresPrincipal(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{})

	rec := httptest.NewRecorder()
	h.Deposit(rec, httptest.NewRequest(http.MethodPost, "/wallet/deposit", bytes.NewBufferString(`{"amount": 1}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletHandler_Withdraw_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"insufficient funds", fmt.Errorf("%w: balance 10", domain.ErrInsufficientFunds), http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"inactive", domain.ErrAccountInactive, http.StatusForbidden},
		{"not found", domain.ErrAccountNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWalletHandler(&walletServiceStub{
				withdrawFn: func(ctx context.Context, input usecase.WithdrawInput) (*usecase.OperationResult, error) {
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Withdraw(rec, authedRequest(http.MethodPost, "/wallet/withdraw", `{"amount": 50, "currency": "USD"}`))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestWalletHandler_InvalidBody(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{})

	rec := httptest.NewRecorder()
	h.Withdraw(rec, authedRequest(http.MethodPost, "/wallet/withdraw", `{"amount":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_Transfer(t *testing.T) {
	var captured usecase.TransferInput
	h := NewWalletHandler(&walletServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
			captured = input
			out, in := domain.NewTransferLegs("tx-out", "tx-in", input.FromUserID, input.ToUserID, input.Amount, input.Currency, handlerTime)
			return &usecase.TransferResult{
				Out:            out,
				In:             in,
				SenderBalances: map[string]decimal.Decimal{"EUR": decimal.NewFromInt(70)},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Transfer(rec, authedRequest(http.MethodPost, "/wallet/transfer", `{"to": "bob", "amount": "30", "currency": "EUR"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", captured.FromUserID)
	assert.Equal(t, "bob", captured.ToUserID)
	assert.Equal(t, "EUR", captured.Currency)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(30)))
	assert.Contains(t, rec.Body.String(), `"to":"bob"`)
	assert.Contains(t, rec.Body.String(), `"EUR":"70"`)
}

func TestWalletHandler_DeleteTransaction(t *testing.T) {
	tx := domain.NewDeposit("tx-9", decimal.NewFromInt(5), "USD", handlerTime)
	tx.MarkDeleted()

	var byID string
	var byIndex = -1
	h := NewWalletHandler(&walletServiceStub{
		deleteByIDFn: func(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
			byID = transactionID
			return tx, nil
		},
		deleteAtFn: func(ctx context.Context, userID string, index int) (*domain.Transaction, error) {
			byIndex = index
			if index > 0 {
				return nil, domain.ErrInvalidIndex
			}
			return tx, nil
		},
	})

	rec := httptest.NewRecorder()
	h.DeleteTransaction(rec, authedRequest(http.MethodPost, "/wallet/delete-transaction", `{"id": "tx-9"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tx-9", byID)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)

	rec = httptest.NewRecorder()
	h.DeleteTransaction(rec, authedRequest(http.MethodPost, "/wallet/delete-transaction", `{"index": 0}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, byIndex)

	rec = httptest.NewRecorder()
	h.DeleteTransaction(rec, authedRequest(http.MethodPost, "/wallet/delete-transaction", `{"index": 7}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteTransaction(rec, authedRequest(http.MethodPost, "/wallet/delete-transaction", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_HistoryAndBalance(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{
		historyFn: func(ctx context.Context, userID string) ([]*domain.Transaction, error) {
			removed := domain.NewDeposit("tx-0", decimal.NewFromInt(3), "USD", handlerTime)
			removed.MarkDeleted()
			return []*domain.Transaction{removed, domain.NewDeposit("tx-1", decimal.NewFromInt(5), "USD", handlerTime)}, nil
		},
		balancesFn: func(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"USD": decimal.NewFromInt(5)}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.History(rec, authedRequest(http.MethodGet, "/wallet/history", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var history struct {
		Transactions []map[string]any `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Transactions, 2, "soft-deleted entries stay in the log")
	assert.Equal(t, "tx-0", history.Transactions[0]["id"])
	assert.Equal(t, true, history.Transactions[0]["deleted"])
	assert.Equal(t, "tx-1", history.Transactions[1]["id"])
	assert.Equal(t, false, history.Transactions[1]["deleted"])

	rec = httptest.NewRecorder()
	h.Balance(rec, authedRequest(http.MethodGet, "/wallet/balance", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance":{"USD":"5"}}`, rec.Body.String())
}

func TestWalletHandler_DeleteAccount(t *testing.T) {
	var deactivated string
	h := NewWalletHandler(&walletServiceStub{
		deactivateFn: func(ctx context.Context, userID string) error {
			deactivated = userID
			return nil
		},
	})

	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, authedRequest(http.MethodDelete, "/account/delete", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", deactivated)
	assert.JSONEq(t, `{"message":"Account marked as deleted"}`, rec.Body.String())
}
