package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// WalletUseCase handles deposits, withdrawals, transfers and the
// transaction lifecycle of user wallets.
type WalletUseCase struct {
	directory  AccountDirectory
	detector   FraudDetector
	dispatcher AlertDispatcher
	idGen      IDGenerator
	metrics    LedgerMetrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	directory AccountDirectory,
	detector FraudDetector,
	dispatcher AlertDispatcher,
	idGen IDGenerator,
	metrics LedgerMetrics,
	logger zerolog.Logger,
) *WalletUseCase {
	if dispatcher == nil {
		dispatcher = NopDispatcher{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &WalletUseCase{
		directory:  directory,
		detector:   detector,
		dispatcher: dispatcher,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Intended for tests.
func (uc *WalletUseCase) WithClock(now func() time.Time) *WalletUseCase {
	uc.now = now
	return uc
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	UserID   string
	Amount   decimal.Decimal
	Currency string
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	UserID   string
	Amount   decimal.Decimal
	Currency string
}

// TransferInput represents input for a transfer between two users.
type TransferInput struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string
}

// OperationResult is returned by single-account operations.
type OperationResult struct {
	Transaction *domain.Transaction
	Balances    map[string]decimal.Decimal
}

// TransferResult is returned by Transfer.
type TransferResult struct {
	Out               *domain.Transaction
	In                *domain.Transaction
	SenderBalances    map[string]decimal.Decimal
	RecipientBalances map[string]decimal.Decimal
}

// Register creates an empty account for userID.
func (uc *WalletUseCase) Register(ctx context.Context, userID string) (*domain.Account, error) {
	acc, err := uc.directory.Create(ctx, userID)
	uc.metrics.ObserveOperation(OpRegister, err)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveRegistration()
	return acc, nil
}

// Deposit credits amount to the user's balance in currency.
func (uc *WalletUseCase) Deposit(ctx context.Context, input DepositInput) (*OperationResult, error) {
	result, err := uc.post(ctx, input.UserID, input.Amount, input.Currency,
		func(id string, amount decimal.Decimal, currency string, at time.Time) *domain.Transaction {
			return domain.NewDeposit(id, amount, currency, at)
		})
	uc.metrics.ObserveOperation(OpDeposit, err)
	return result, err
}

// Withdraw debits amount from the user's balance in currency.
func (uc *WalletUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*OperationResult, error) {
	result, err := uc.post(ctx, input.UserID, input.Amount, input.Currency,
		func(id string, amount decimal.Decimal, currency string, at time.Time) *domain.Transaction {
			return domain.NewWithdrawal(id, amount, currency, at)
		})
	uc.metrics.ObserveOperation(OpWithdraw, err)
	return result, err
}

type transactionFactory func(id string, amount decimal.Decimal, currency string, at time.Time) *domain.Transaction

func (uc *WalletUseCase) post(
	ctx context.Context,
	userID string,
	amount decimal.Decimal,
	currency string,
	build transactionFactory,
) (*OperationResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	currency, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	var (
		result *OperationResult
		alert  *domain.FraudAlert
	)

	err = uc.directory.Update(ctx, []string{userID}, func(accounts map[string]*domain.Account) error {
		acc, ok := accounts[userID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, userID)
		}

		now := uc.now()
		tx := build(uc.idGen.Generate(), amount, currency, now)
		history := acc.History()

		if err := acc.Post(tx); err != nil {
			return err
		}

		alert = uc.screen(userID, history, tx, now)
		result = &OperationResult{Transaction: tx.Clone(), Balances: acc.Balances()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.dispatch(alert)
	return result, nil
}

// Transfer moves amount from one user to another. Both legs are appended
// under both account locks and screened independently.
func (uc *WalletUseCase) Transfer(ctx context.Context, input TransferInput) (result *TransferResult, err error) {
	defer func() { uc.metrics.ObserveOperation(OpTransfer, err) }()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	currency, err := domain.NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	if input.FromUserID == input.ToUserID {
		return nil, fmt.Errorf("%w: cannot transfer to yourself", domain.ErrInvalidRecipient)
	}

	var outAlert, inAlert *domain.FraudAlert

	err = uc.directory.Update(ctx, []string{input.FromUserID, input.ToUserID}, func(accounts map[string]*domain.Account) error {
		sender, ok := accounts[input.FromUserID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, input.FromUserID)
		}
		if sender.IsDeleted() {
			return domain.ErrAccountInactive
		}

		recipient, ok := accounts[input.ToUserID]
		if !ok || recipient.IsDeleted() {
			return fmt.Errorf("%w: %s", domain.ErrInvalidRecipient, input.ToUserID)
		}

		now := uc.now()
		out, in := domain.NewTransferLegs(
			uc.idGen.Generate(), uc.idGen.Generate(),
			input.FromUserID, input.ToUserID,
			input.Amount, currency, now,
		)
		senderHistory := sender.History()
		recipientHistory := recipient.History()

		if err := domain.PostTransfer(sender, recipient, out, in); err != nil {
			return err
		}

		outAlert = uc.screen(input.FromUserID, senderHistory, out, now)
		inAlert = uc.screen(input.ToUserID, recipientHistory, in, now)

		result = &TransferResult{
			Out:               out.Clone(),
			In:                in.Clone(),
			SenderBalances:    sender.Balances(),
			RecipientBalances: recipient.Balances(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.dispatch(outAlert)
	uc.dispatch(inAlert)
	return result, nil
}

// SoftDeleteTransaction hides the transaction with the given id. Balances
// are never changed.
func (uc *WalletUseCase) SoftDeleteTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return uc.softDelete(ctx, userID, func(acc *domain.Account) (*domain.Transaction, error) {
		return acc.SoftDelete(transactionID)
	})
}

// SoftDeleteTransactionAt hides the transaction at a position in the log.
func (uc *WalletUseCase) SoftDeleteTransactionAt(ctx context.Context, userID string, index int) (*domain.Transaction, error) {
	return uc.softDelete(ctx, userID, func(acc *domain.Account) (*domain.Transaction, error) {
		return acc.SoftDeleteAt(index)
	})
}

func (uc *WalletUseCase) softDelete(
	ctx context.Context,
	userID string,
	del func(acc *domain.Account) (*domain.Transaction, error),
) (deleted *domain.Transaction, err error) {
	defer func() { uc.metrics.ObserveOperation(OpSoftDelete, err) }()

	err = uc.directory.Update(ctx, []string{userID}, func(accounts map[string]*domain.Account) error {
		acc, ok := accounts[userID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, userID)
		}

		tx, err := del(acc)
		if err != nil {
			return err
		}
		deleted = tx.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// DeactivateAccount permanently disables financial operations on the
// account. Deactivating twice is the same as deactivating once.
func (uc *WalletUseCase) DeactivateAccount(ctx context.Context, userID string) (err error) {
	defer func() { uc.metrics.ObserveOperation(OpDeactivateAccount, err) }()

	return uc.directory.Update(ctx, []string{userID}, func(accounts map[string]*domain.Account) error {
		acc, ok := accounts[userID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, userID)
		}
		acc.Deactivate()
		return nil
	})
}

// History returns the full transaction log, deleted and flagged entries
// included. It works on deactivated accounts.
func (uc *WalletUseCase) History(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	acc, err := uc.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return acc.History(), nil
}

// Balances returns the user's balances.
func (uc *WalletUseCase) Balances(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	acc, err := uc.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return acc.Balances(), nil
}

// screen runs fraud detection on a freshly appended transaction. It must be
// called while the account lock is held. A detector panic is recovered so
// the committed mutation stands; the failure is logged and counted.
func (uc *WalletUseCase) screen(
	userID string,
	history []*domain.Transaction,
	tx *domain.Transaction,
	now time.Time,
) (alert *domain.FraudAlert) {
	defer func() {
		if r := recover(); r != nil {
			uc.metrics.ObserveFraudFailure()
			uc.logger.Error().
				Str("user_id", userID).
				Str("transaction_id", tx.ID()).
				Interface("panic", r).
				Msg("fraud evaluation failed")
			alert = nil
		}
	}()

	reasons := uc.detector.Evaluate(history, tx, now)
	if !tx.Flag(reasons) {
		return nil
	}

	uc.metrics.ObserveFlagged(reasons)
	uc.logger.Warn().
		Str("user_id", userID).
		Str("transaction_id", tx.ID()).
		Str("kind", string(tx.Kind())).
		Str("amount", tx.Amount().String()).
		Str("currency", tx.Currency()).
		Strs("reasons", reasons).
		Msg("transaction flagged")

	return &domain.FraudAlert{
		UserID:      userID,
		Transaction: tx.Clone(),
		Reasons:     tx.Alerts(),
		DetectedAt:  now,
	}
}

func (uc *WalletUseCase) dispatch(alert *domain.FraudAlert) {
	if alert == nil {
		return
	}
	uc.dispatcher.Dispatch(*alert)
}
