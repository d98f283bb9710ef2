package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

// ---------------------------------------------------------------------------
// In-memory mock for ProfileStore, JSON round-trip on load and save like the
// real repository.
// ---------------------------------------------------------------------------

type mockStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
	saveErr  error
}

func newMockStore(ps ...*models.Profile) *mockStore {
	m := &mockStore{profiles: make(map[uuid.UUID]*models.Profile)}
	for _, p := range ps {
		m.profiles[p.ID] = cloneProfile(p)
	}
	return m
}

func cloneProfile(p *models.Profile) *models.Profile {
	blob, err := json.Marshal(p.Account)
	if err != nil {
		panic(err)
	}
	cp := *p
	cp.Account = models.Account{}
	if err := json.Unmarshal(blob, &cp.Account); err != nil {
		panic(err)
	}
	return &cp
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	return cloneProfile(p), nil
}

func (m *mockStore) Save(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (m *mockStore) account(id uuid.UUID) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProfile(m.profiles[id]).Account
}

func newTestProfile(balanceCents int64) *models.Profile {
	id := uuid.New()
	p := &models.Profile{
		ID:      id,
		Email:   "miner@example.com",
		Role:    "user",
		Version: 1,
		Account: models.NewAccount(id, "miner@example.com"),
	}
	p.Account.BalanceCents = balanceCents
	return p
}

func newTestService(st *mockStore) *service {
	svc := NewService(st)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

func TestRequestDepositIsPendingAndDoesNotCredit(t *testing.T) {
	p := newTestProfile(0)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestDeposit(context.Background(), p.ID, 5000, "0xabc")
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	if tx.Status != models.TransactionPending {
		t.Errorf("status = %s, want pending", tx.Status)
	}
	if !strings.HasPrefix(tx.ID, "DEP-") {
		t.Errorf("tx id %q missing DEP- prefix", tx.ID)
	}

	acc := st.account(p.ID)
	if acc.BalanceCents != 0 {
		t.Errorf("pending deposit credited balance: %d", acc.BalanceCents)
	}
	if acc.TotalDepositsCents != 0 {
		t.Errorf("pending deposit counted toward totals: %d", acc.TotalDepositsCents)
	}
	if len(acc.Transactions) != 1 || acc.Transactions[0].TxHash != "0xabc" {
		t.Errorf("transaction not persisted: %+v", acc.Transactions)
	}
}

func TestRequestDepositBelowMinimum(t *testing.T) {
	p := newTestProfile(0)
	svc := newTestService(newMockStore(p))

	if _, err := svc.RequestDeposit(context.Background(), p.ID, models.MinDepositCents-1, "0xabc"); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("err = %v, want ErrBelowMinimum", err)
	}
}

func TestRequestWithdrawalReservesFundsImmediately(t *testing.T) {
	p := newTestProfile(12000)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestWithdrawal(context.Background(), p.ID, 5000, "TWallet123")
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if !strings.HasPrefix(tx.ID, "WDR-") {
		t.Errorf("tx id %q missing WDR- prefix", tx.ID)
	}
	acc := st.account(p.ID)
	if acc.BalanceCents != 7000 {
		t.Errorf("balance = %d, want 7000 (reservation at request time)", acc.BalanceCents)
	}

	// The reservation caps what a second request can take.
	if _, err := svc.RequestWithdrawal(context.Background(), p.ID, 8000, "TWallet123"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("over-reserved withdrawal err = %v, want ErrInsufficientFunds", err)
	}
}

func TestRequestWithdrawalBelowMinimum(t *testing.T) {
	p := newTestProfile(12000)
	svc := newTestService(newMockStore(p))

	if _, err := svc.RequestWithdrawal(context.Background(), p.ID, models.MinWithdrawalCents-1, "TWallet123"); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("err = %v, want ErrBelowMinimum", err)
	}
}

// ---------------------------------------------------------------------------
// Arbitration
// ---------------------------------------------------------------------------

func TestApproveCreditsDepositExactlyOnce(t *testing.T) {
	p := newTestProfile(0)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestDeposit(context.Background(), p.ID, 5000, "0xabc")
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	if err := svc.Approve(context.Background(), p.ID, tx.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	acc := st.account(p.ID)
	if acc.BalanceCents != 5000 {
		t.Errorf("balance = %d, want 5000", acc.BalanceCents)
	}
	if acc.TotalDepositsCents != 5000 {
		t.Errorf("total deposits = %d, want 5000", acc.TotalDepositsCents)
	}
	if got := acc.FindTransaction(tx.ID); got == nil || got.Status != models.TransactionCompleted {
		t.Errorf("transaction not completed: %+v", got)
	}

	// Second approval is a no-op soft failure.
	if err := svc.Approve(context.Background(), p.ID, tx.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("double approve err = %v, want ErrAlreadyProcessed", err)
	}
	if got := st.account(p.ID).BalanceCents; got != 5000 {
		t.Errorf("double approve moved balance to %d", got)
	}
}

func TestRejectRefundsWithdrawalReservation(t *testing.T) {
	p := newTestProfile(12000)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestWithdrawal(context.Background(), p.ID, 5000, "TWallet123")
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if err := svc.Reject(context.Background(), p.ID, tx.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	acc := st.account(p.ID)
	if acc.BalanceCents != 12000 {
		t.Errorf("balance = %d, want full refund to 12000", acc.BalanceCents)
	}
	got := acc.FindTransaction(tx.ID)
	if got == nil || got.Status != models.TransactionRejected {
		t.Errorf("transaction not rejected: %+v", got)
	}
	if !got.IsTerminal() {
		t.Error("rejected transaction should be terminal")
	}
}

func TestApproveWithdrawalOnlyFlipsStatus(t *testing.T) {
	p := newTestProfile(12000)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestWithdrawal(context.Background(), p.ID, 5000, "TWallet123")
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if err := svc.Approve(context.Background(), p.ID, tx.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	acc := st.account(p.ID)
	if acc.BalanceCents != 7000 {
		t.Errorf("balance = %d, want 7000 (already deducted at request)", acc.BalanceCents)
	}
	if got := acc.FindTransaction(tx.ID); got == nil || got.Status != models.TransactionCompleted {
		t.Errorf("transaction not completed: %+v", got)
	}
}

func TestRejectDepositDoesNotTouchBalance(t *testing.T) {
	p := newTestProfile(300)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestDeposit(context.Background(), p.ID, 5000, "0xabc")
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	if err := svc.Reject(context.Background(), p.ID, tx.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got := st.account(p.ID).BalanceCents; got != 300 {
		t.Errorf("balance = %d, want 300", got)
	}
}

func TestArbitrateUnknownTransaction(t *testing.T) {
	p := newTestProfile(0)
	svc := newTestService(newMockStore(p))

	if err := svc.Approve(context.Background(), p.ID, "DEP-missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestArbitrateSurfacesVersionConflict(t *testing.T) {
	p := newTestProfile(0)
	st := newMockStore(p)
	svc := newTestService(st)

	tx, err := svc.RequestDeposit(context.Background(), p.ID, 5000, "0xabc")
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	st.saveErr = store.ErrConflict
	if err := svc.Approve(context.Background(), p.ID, tx.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want wrapped store.ErrConflict", err)
	}
}
