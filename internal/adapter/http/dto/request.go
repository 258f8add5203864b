package dto

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/usecase"
)

// DefaultCurrency is used when a request omits the currency.
const DefaultCurrency = "USD"

// ErrAmbiguousTransactionRef is returned when a delete request names both
// or neither of id and index.
var ErrAmbiguousTransactionRef = errors.New("exactly one of id or index is required")

// CredentialsRequest is the body of /register and /login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ToRegisterInput converts to use case input.
func (r *CredentialsRequest) ToRegisterInput() usecase.RegisterInput {
	return usecase.RegisterInput{Username: r.Username, Password: r.Password}
}

// ToLoginInput converts to use case input.
func (r *CredentialsRequest) ToLoginInput() usecase.LoginInput {
	return usecase.LoginInput{Username: r.Username, Password: r.Password}
}

// AmountRequest is the body of deposit and withdraw.
type AmountRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// ToDepositInput converts to use case input.
func (r *AmountRequest) ToDepositInput(userID string) usecase.DepositInput {
	return usecase.DepositInput{
		UserID:   userID,
		Amount:   r.Amount,
		Currency: currencyOrDefault(r.Currency),
	}
}

// ToWithdrawInput converts to use case input.
func (r *AmountRequest) ToWithdrawInput(userID string) usecase.WithdrawInput {
	return usecase.WithdrawInput{
		UserID:   userID,
		Amount:   r.Amount,
		Currency: currencyOrDefault(r.Currency),
	}
}

// TransferRequest represents a request to send funds to another user.
type TransferRequest struct {
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput(from string) usecase.TransferInput {
	return usecase.TransferInput{
		FromUserID: from,
		ToUserID:   r.To,
		Amount:     r.Amount,
		Currency:   currencyOrDefault(r.Currency),
	}
}

// DeleteTransactionRequest selects a transaction by id or, for older
// clients, by position in the history.
type DeleteTransactionRequest struct {
	ID    string `json:"id,omitempty"`
	Index *int   `json:"index,omitempty"`
}

// Validate checks that exactly one selector is set.
func (r *DeleteTransactionRequest) Validate() error {
	hasID := strings.TrimSpace(r.ID) != ""
	if hasID == (r.Index != nil) {
		return ErrAmbiguousTransactionRef
	}
	return nil
}

func currencyOrDefault(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return DefaultCurrency
	}
	return currency
}
