package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	TransactionDeposit    TransactionKind = "DEPOSIT"
	TransactionWithdrawal TransactionKind = "WITHDRAWAL"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionRejected  TransactionStatus = "REJECTED"
)

// Transaction is an append-only record of a balance-affecting request.
// Status starts PENDING and transitions exactly once to a terminal state;
// once terminal the record is immutable.
type Transaction struct {
	ID          string            `json:"id"`
	AmountCents int64             `json:"amount_cents"`
	Kind        TransactionKind   `json:"kind"`
	Status      TransactionStatus `json:"status"`
	Currency    string            `json:"currency"`
	CreatedAt   time.Time         `json:"created_at"`

	// TxHash is the external proof reference for deposits; Address is the
	// destination for withdrawals.
	TxHash  string `json:"tx_hash,omitempty"`
	Address string `json:"address,omitempty"`
}

// IsTerminal reports whether the transaction has been arbitrated.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionCompleted || t.Status == TransactionRejected
}

// NewTransactionID returns a kind-prefixed transaction id.
func NewTransactionID(kind TransactionKind) string {
	if kind == TransactionWithdrawal {
		return "WDR-" + uuid.NewString()
	}
	return "DEP-" + uuid.NewString()
}
