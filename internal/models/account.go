package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform constants. Amounts are in cents (USDT).
const (
	MinDepositCents    int64 = 1000
	MinWithdrawalCents int64 = 1000

	// WithdrawalFeePercent is surfaced to clients as metadata; the fee is
	// settled off-platform and never deducted from the requested amount.
	WithdrawalFeePercent = 3

	// Welcome gift: a one-day trial cycle worth $5 total.
	WelcomeGiftValueCents       int64   = 500
	WelcomeGiftDurationDays     int     = 1
	WelcomeGiftDailyRatePercent float64 = 100.0

	MaxNotifications = 20
)

// AdminWalletAddress is the deposit destination shown to users.
const AdminWalletAddress = "TXLsHureixQs123XNcyzSWZ8edH6yTxS67"

// Account is the owning aggregate for one user: balance, devices,
// transactions and onboarding flags. It is persisted as a single document;
// every mutation computes a complete next Account in memory and writes it
// in one save.
type Account struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	BalanceCents       int64  `json:"balance_cents"`
	TotalDepositsCents int64  `json:"total_deposits_cents"`
	TotalEarningsCents int64  `json:"total_earnings_cents"`

	// Role is a display label only. It is overwritten with the resolved
	// authority after every load and is never read for authorization.
	Role string `json:"role"`

	Devices       []Device       `json:"devices"`
	Transactions  []Transaction  `json:"transactions"`
	Notifications []Notification `json:"notifications"`

	// One-way latches: false -> true, never reversed.
	HasSeenOnboarding     bool `json:"has_seen_onboarding"`
	HasClaimedWelcomeGift bool `json:"has_claimed_welcome_gift"`

	LastProfitUpdate time.Time `json:"last_profit_update"`
}

// NewAccount returns the initial document for a freshly registered user.
func NewAccount(id uuid.UUID, email string) Account {
	return Account{
		ID:               id.String(),
		Email:            email,
		Role:             "USER",
		Devices:          []Device{},
		Transactions:     []Transaction{},
		Notifications:    []Notification{},
		LastProfitUpdate: time.Now().UTC(),
	}
}

// FindDevice returns a pointer into Devices for the given instance id, or nil.
func (a *Account) FindDevice(instanceID string) *Device {
	for i := range a.Devices {
		if a.Devices[i].InstanceID == instanceID {
			return &a.Devices[i]
		}
	}
	return nil
}

// FindTransaction returns a pointer into Transactions for the given id, or nil.
func (a *Account) FindTransaction(txID string) *Transaction {
	for i := range a.Transactions {
		if a.Transactions[i].ID == txID {
			return &a.Transactions[i]
		}
	}
	return nil
}

// Notify prepends a notification and trims the list to MaxNotifications.
func (a *Account) Notify(title, message, kind string) {
	n := Notification{
		ID:        "N-" + uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}
	a.Notifications = append([]Notification{n}, a.Notifications...)
	if len(a.Notifications) > MaxNotifications {
		a.Notifications = a.Notifications[:MaxNotifications]
	}
}

// Profile is one durable record: the authority columns the client can never
// write plus the Account document blob. Version is the optimistic-concurrency
// token checked on save.
type Profile struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
	Role    string
	Version int64
	Account Account
}
