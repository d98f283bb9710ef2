// Package ledger owns the balance-affecting request operations and the
// administrator arbitration workflow that resolves them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/devices"
	"github.com/minecloud/backend/internal/models"
)

// ErrInsufficientFunds is returned when the balance cannot cover a withdrawal.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBelowMinimum is returned when a request is under the platform minimum.
var ErrBelowMinimum = errors.New("amount below minimum")

// ErrAlreadyProcessed is returned when arbitration targets a transaction
// that is no longer pending. Soft failure: nothing changes.
var ErrAlreadyProcessed = errors.New("transaction already processed")

// ErrTransactionNotFound is returned when the target account has no
// transaction with the given id.
var ErrTransactionNotFound = errors.New("transaction not found")

// ProfileStore is the minimal record store interface the ledger needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
}

type Service interface {
	RequestDeposit(ctx context.Context, accountID uuid.UUID, amountCents int64, txHash string) (*models.Transaction, error)
	RequestWithdrawal(ctx context.Context, accountID uuid.UUID, amountCents int64, address string) (*models.Transaction, error)
	Approve(ctx context.Context, targetID uuid.UUID, txID string) error
	Reject(ctx context.Context, targetID uuid.UUID, txID string) error
}

type service struct {
	store ProfileStore
	now   func() time.Time
}

func NewService(store ProfileStore) *service {
	return &service{store: store, now: time.Now}
}

var _ Service = (*service)(nil)

// RequestDeposit appends a pending deposit. The balance is not credited
// here: external proof must be arbitrated first.
func (s *service) RequestDeposit(ctx context.Context, accountID uuid.UUID, amountCents int64, txHash string) (*models.Transaction, error) {
	if amountCents < models.MinDepositCents {
		return nil, ErrBelowMinimum
	}
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	devices.SettleExpired(&p.Account, s.now().UTC())

	tx := models.Transaction{
		ID:          models.NewTransactionID(models.TransactionDeposit),
		AmountCents: amountCents,
		Kind:        models.TransactionDeposit,
		Status:      models.TransactionPending,
		Currency:    "USDT",
		CreatedAt:   s.now().UTC(),
		TxHash:      txHash,
	}
	p.Account.Transactions = append([]models.Transaction{tx}, p.Account.Transactions...)

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save deposit request: %w", err)
	}
	return &tx, nil
}

// RequestWithdrawal reserves the funds immediately (balance is deducted)
// and appends a pending withdrawal. The reservation prevents double-spends
// while a human reviews the request; a rejection refunds it.
func (s *service) RequestWithdrawal(ctx context.Context, accountID uuid.UUID, amountCents int64, address string) (*models.Transaction, error) {
	if amountCents < models.MinWithdrawalCents {
		return nil, ErrBelowMinimum
	}
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	devices.SettleExpired(&p.Account, s.now().UTC())

	if p.Account.BalanceCents < amountCents {
		return nil, ErrInsufficientFunds
	}
	tx := models.Transaction{
		ID:          models.NewTransactionID(models.TransactionWithdrawal),
		AmountCents: amountCents,
		Kind:        models.TransactionWithdrawal,
		Status:      models.TransactionPending,
		Currency:    "USDT",
		CreatedAt:   s.now().UTC(),
		Address:     address,
	}
	p.Account.BalanceCents -= amountCents
	p.Account.Transactions = append([]models.Transaction{tx}, p.Account.Transactions...)

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save withdrawal request: %w", err)
	}
	return &tx, nil
}

// Approve resolves a pending transaction as completed. Deposits credit the
// balance here and only here. The pending guard runs against the freshly
// loaded record, and the version check on save rejects lost updates, so a
// transaction can never be credited twice.
func (s *service) Approve(ctx context.Context, targetID uuid.UUID, txID string) error {
	return s.arbitrate(ctx, targetID, txID, func(acc *models.Account, tx *models.Transaction) {
		if tx.Kind == models.TransactionDeposit {
			acc.BalanceCents += tx.AmountCents
			acc.TotalDepositsCents += tx.AmountCents
		}
		tx.Status = models.TransactionCompleted
		acc.Notify("Transaction approved",
			fmt.Sprintf("Your %s of $%.2f was approved.", kindLabel(tx.Kind), float64(tx.AmountCents)/100),
			models.NotificationSuccess)
	})
}

// Reject resolves a pending transaction as rejected. Withdrawals refund the
// reservation taken at request time.
func (s *service) Reject(ctx context.Context, targetID uuid.UUID, txID string) error {
	return s.arbitrate(ctx, targetID, txID, func(acc *models.Account, tx *models.Transaction) {
		if tx.Kind == models.TransactionWithdrawal {
			acc.BalanceCents += tx.AmountCents
		}
		tx.Status = models.TransactionRejected
		acc.Notify("Transaction rejected",
			fmt.Sprintf("Your %s of $%.2f was rejected.", kindLabel(tx.Kind), float64(tx.AmountCents)/100),
			models.NotificationError)
	})
}

func (s *service) arbitrate(ctx context.Context, targetID uuid.UUID, txID string, apply func(*models.Account, *models.Transaction)) error {
	p, err := s.store.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	devices.SettleExpired(&p.Account, s.now().UTC())

	tx := p.Account.FindTransaction(txID)
	if tx == nil {
		return ErrTransactionNotFound
	}
	if tx.Status != models.TransactionPending {
		return ErrAlreadyProcessed
	}
	apply(&p.Account, tx)

	if err := s.store.Save(ctx, p); err != nil {
		return fmt.Errorf("save arbitration: %w", err)
	}
	return nil
}

func kindLabel(k models.TransactionKind) string {
	if k == models.TransactionWithdrawal {
		return "withdrawal"
	}
	return "deposit"
}
