package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is deactivated")
	ErrAlreadyExists   = errors.New("account already exists")

	// Operation errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInvalidIndex        = errors.New("invalid transaction index")
	ErrTransactionNotFound = errors.New("transaction not found")
)
