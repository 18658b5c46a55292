package wallet

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
	"gorm.io/gorm"
)

// txRunner is the transaction scope the service runs its mutations in.
// db.Client satisfies it; WithTx swaps in an already-open transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type boundRunner struct {
	tx *gorm.DB
}

func (b boundRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(b.tx)
}

// InsufficientFundsDetails is attached when a debit exceeds the balance.
type InsufficientFundsDetails struct {
	BalancePaise   int64 `json:"balance_paise"`
	RequestedPaise int64 `json:"requested_paise"`
}

// EntryParams describes a credit or debit to apply.
type EntryParams struct {
	UserID      string
	AmountPaise int64
	OrderID     *string
	Description string
}

// Service is the wallet ledger. Every balance mutation writes a transaction
// row with a balance snapshot taken in the same database transaction.
type Service interface {
	EnsureWallet(ctx context.Context, userID string) (*models.Wallet, error)
	Balance(ctx context.Context, userID string) (*models.Wallet, error)
	Credit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error)
	Debit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error)
	RequestWithdrawal(ctx context.Context, userID string, amountPaise int64) (*models.WalletTransaction, error)
	ResolveWithdrawal(ctx context.Context, txnID string, approve bool) (*models.WalletTransaction, error)
	Transactions(ctx context.Context, userID string, page pagination.Params) ([]models.WalletTransaction, int64, error)

	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo   Repository
	runner txRunner
	logg   *logger.Logger
}

// NewService builds the wallet service.
func NewService(repo Repository, runner txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, runner: runner, logg: logg}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{
		repo:   s.repo.WithTx(tx),
		runner: boundRunner{tx: tx},
		logg:   s.logg,
	}
}

// EnsureWallet returns the user's wallet, creating an empty one on first use.
func (s *service) EnsureWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	wallet = &models.Wallet{UserID: userID}
	if err := s.repo.Create(ctx, wallet); err != nil {
		// Two first requests can race on the user_id unique index; the
		// loser adopts the winner's row.
		if db.IsUniqueViolation(err, "") {
			return s.repo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}

func (s *service) Balance(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.EnsureWallet(ctx, userID)
}

func (s *service) Credit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error) {
	if params.AmountPaise <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "credit amount must be positive")
	}

	var txn *models.WalletTransaction
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)
		wallet, err := bound.EnsureWallet(ctx, params.UserID)
		if err != nil {
			return err
		}
		var applyErr error
		txn, applyErr = bound.applyEntry(ctx, wallet, enums.WalletTransactionCredit,
			enums.WalletTransactionStatusSuccess, params)
		return applyErr
	})
	return txn, err
}

func (s *service) Debit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error) {
	if params.AmountPaise <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "debit amount must be positive")
	}

	var txn *models.WalletTransaction
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)
		wallet, err := bound.EnsureWallet(ctx, params.UserID)
		if err != nil {
			return err
		}
		var applyErr error
		txn, applyErr = bound.applyEntry(ctx, wallet, enums.WalletTransactionDebit,
			enums.WalletTransactionStatusSuccess, params)
		return applyErr
	})
	return txn, err
}

// applyEntry mutates the balance and writes the ledger row. Must run on a
// tx-bound service.
func (s *service) applyEntry(
	ctx context.Context,
	wallet *models.Wallet,
	entryType enums.WalletTransactionType,
	status enums.WalletTransactionStatus,
	params EntryParams,
) (*models.WalletTransaction, error) {
	delta := params.AmountPaise
	requireFunds := false
	if entryType == enums.WalletTransactionDebit {
		delta = -params.AmountPaise
		requireFunds = true
	}

	ok, err := s.repo.AdjustBalance(ctx, wallet.ID, delta, requireFunds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeConflict, "insufficient wallet balance").
			WithDetails(InsufficientFundsDetails{
				BalancePaise:   wallet.BalancePaise,
				RequestedPaise: params.AmountPaise,
			})
	}

	updated, err := s.repo.Reload(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		WalletID:          wallet.ID,
		UserID:            params.UserID,
		Type:              entryType,
		Status:            status,
		AmountPaise:       params.AmountPaise,
		BalanceAfterPaise: updated.BalancePaise,
		OrderID:           params.OrderID,
		Description:       params.Description,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// RequestWithdrawal records a pending withdrawal. The balance is untouched
// until an operator approves, so the ledger row carries the balance at
// request time as its snapshot.
func (s *service) RequestWithdrawal(ctx context.Context, userID string, amountPaise int64) (*models.WalletTransaction, error) {
	if amountPaise <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "withdrawal amount must be positive")
	}

	var txn *models.WalletTransaction
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)
		wallet, err := bound.EnsureWallet(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.BalancePaise < amountPaise {
			return apperrors.New(apperrors.CodeConflict, "insufficient wallet balance").
				WithDetails(InsufficientFundsDetails{
					BalancePaise:   wallet.BalancePaise,
					RequestedPaise: amountPaise,
				})
		}

		txn = &models.WalletTransaction{
			WalletID:          wallet.ID,
			UserID:            userID,
			Type:              enums.WalletTransactionDebit,
			Status:            enums.WalletTransactionStatusPending,
			AmountPaise:       amountPaise,
			BalanceAfterPaise: wallet.BalancePaise,
			Description:       "withdrawal request",
		}
		return bound.repo.CreateTransaction(ctx, txn)
	})
	return txn, err
}

// ResolveWithdrawal settles a pending withdrawal. Approval re-checks the
// funds and debits the balance with a success entry linked back to the
// request; rejection only flips the request's status.
func (s *service) ResolveWithdrawal(ctx context.Context, txnID string, approve bool) (*models.WalletTransaction, error) {
	var resolved *models.WalletTransaction
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)

		txn, err := bound.repo.GetTransaction(ctx, txnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "withdrawal not found")
			}
			return err
		}
		if txn.Type != enums.WalletTransactionDebit || txn.Status != enums.WalletTransactionStatusPending {
			return apperrors.New(apperrors.CodeStateConflict, "transaction is not a pending withdrawal")
		}

		if !approve {
			if err := bound.repo.UpdateTransactionStatus(ctx, txnID, enums.WalletTransactionStatusRejected.String()); err != nil {
				return err
			}
			txn.Status = enums.WalletTransactionStatusRejected
			resolved = txn
			return nil
		}

		wallet, err := bound.repo.Reload(ctx, txn.WalletID)
		if err != nil {
			return err
		}
		ok, err := bound.repo.AdjustBalance(ctx, txn.WalletID, -txn.AmountPaise, true)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeConflict, "insufficient wallet balance").
				WithDetails(InsufficientFundsDetails{
					BalancePaise:   wallet.BalancePaise,
					RequestedPaise: txn.AmountPaise,
				})
		}
		updated, err := bound.repo.Reload(ctx, txn.WalletID)
		if err != nil {
			return err
		}

		settled := &models.WalletTransaction{
			WalletID:          txn.WalletID,
			UserID:            txn.UserID,
			Type:              enums.WalletTransactionDebit,
			Status:            enums.WalletTransactionStatusSuccess,
			AmountPaise:       txn.AmountPaise,
			BalanceAfterPaise: updated.BalancePaise,
			LinkedTxnID:       &txn.ID,
			Description:       "withdrawal approved",
		}
		if err := bound.repo.CreateTransaction(ctx, settled); err != nil {
			return err
		}
		if err := bound.repo.UpdateTransactionStatus(ctx, txnID, enums.WalletTransactionStatusApproved.String()); err != nil {
			return err
		}
		resolved = settled
		return nil
	})
	return resolved, err
}

func (s *service) Transactions(ctx context.Context, userID string, page pagination.Params) ([]models.WalletTransaction, int64, error) {
	total, err := s.repo.CountTransactions(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	txns, err := s.repo.ListTransactions(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
