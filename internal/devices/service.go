// Package devices implements the device lifecycle: purchase, activation,
// the one-time welcome grant, and lazy expiry settlement.
package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/accrual"
	"github.com/minecloud/backend/internal/catalog"
	"github.com/minecloud/backend/internal/models"
)

// ErrInsufficientFunds is returned when the balance cannot cover a purchase.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidState is returned for transitions the lifecycle forbids:
// activating a non-idle device or claiming the welcome gift twice.
var ErrInvalidState = errors.New("invalid device state")

// ErrUnknownItem is returned when the catalog has no such offering.
var ErrUnknownItem = errors.New("unknown catalog item")

// ErrInvalidCycle is returned for non-positive activation parameters.
var ErrInvalidCycle = errors.New("invalid cycle parameters")

// ProfileStore is the minimal record store interface the controller needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
}

type Service struct {
	store   ProfileStore
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewService(store ProfileStore, cat *catalog.Catalog) *Service {
	return &Service{store: store, catalog: cat, now: time.Now}
}

// Purchase deducts the item price and appends a new idle device, in one
// save. The new instance is prepended: most recent first.
func (s *Service) Purchase(ctx context.Context, accountID uuid.UUID, itemID string) (*models.Device, error) {
	item, ok := s.catalog.Get(itemID)
	if !ok {
		return nil, ErrUnknownItem
	}
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	SettleExpired(&p.Account, now)

	if p.Account.BalanceCents < item.PriceCents {
		return nil, ErrInsufficientFunds
	}
	dev := models.Device{
		InstanceID:           models.NewDeviceID(),
		CatalogItemID:        item.ID,
		Name:                 item.Name,
		Icon:                 item.Icon,
		PriceAtPurchaseCents: item.PriceCents,
		DailyRatePercent:     item.DailyProfitPercent,
		DurationDays:         item.DurationDays,
		Status:               models.DeviceIdle,
		PurchasedAt:          now,
	}
	p.Account.BalanceCents -= item.PriceCents
	p.Account.Devices = append([]models.Device{dev}, p.Account.Devices...)

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save purchase: %w", err)
	}
	return &dev, nil
}

// Activate starts a profit cycle on an idle device. Re-activating a running
// or completed instance is rejected; the clock is never silently restarted.
func (s *Service) Activate(ctx context.Context, accountID uuid.UUID, instanceID string, days int, ratePercent float64) (*models.Device, error) {
	if days <= 0 || ratePercent <= 0 {
		return nil, ErrInvalidCycle
	}
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	SettleExpired(&p.Account, now)

	dev := p.Account.FindDevice(instanceID)
	if dev == nil {
		return nil, ErrInvalidState
	}
	if dev.Status != models.DeviceIdle {
		return nil, ErrInvalidState
	}
	expires := now.Add(time.Duration(days) * 24 * time.Hour)
	dev.Status = models.DeviceRunning
	dev.ActivatedAt = &now
	dev.ExpiresAt = &expires
	dev.DurationDays = days
	dev.DailyRatePercent = ratePercent

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save activation: %w", err)
	}
	out := *dev
	return &out, nil
}

// ClaimWelcomeGift grants the one-time trial device, created directly in
// the running state. The grant and the latch flip land in the same save, so
// a second call can never produce a second device.
func (s *Service) ClaimWelcomeGift(ctx context.Context, accountID uuid.UUID) (*models.Device, error) {
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p.Account.HasClaimedWelcomeGift {
		return nil, ErrInvalidState
	}
	now := s.now().UTC()
	SettleExpired(&p.Account, now)

	expires := now.Add(time.Duration(models.WelcomeGiftDurationDays) * 24 * time.Hour)
	gift := models.Device{
		InstanceID:           models.NewGiftID(),
		CatalogItemID:        "gift",
		Name:                 "Starter Miner (Trial)",
		PriceAtPurchaseCents: models.WelcomeGiftValueCents,
		DailyRatePercent:     models.WelcomeGiftDailyRatePercent,
		DurationDays:         models.WelcomeGiftDurationDays,
		Status:               models.DeviceRunning,
		PurchasedAt:          now,
		ActivatedAt:          &now,
		ExpiresAt:            &expires,
	}
	p.Account.Devices = append([]models.Device{gift}, p.Account.Devices...)
	p.Account.HasClaimedWelcomeGift = true

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save gift claim: %w", err)
	}
	return &gift, nil
}

// Sync loads the account, settles any expired cycles, and persists only if
// something changed. This runs on every load-bearing read and from the
// periodic sweep, so an expired device is settled even if its owner never
// opens the app.
func (s *Service) Sync(ctx context.Context, accountID uuid.UUID) (*models.Profile, error) {
	p, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !SettleExpired(&p.Account, s.now().UTC()) {
		return p, nil
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save settlement: %w", err)
	}
	return p, nil
}

// List returns the account's devices with live accrual figures.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]View, error) {
	p, err := s.Sync(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	views := make([]View, len(p.Account.Devices))
	for i := range p.Account.Devices {
		views[i] = NewView(&p.Account.Devices[i], now)
	}
	return views, nil
}

// SettleExpired flips every running device past its expiry to completed and
// credits the full cycle total exactly once. Returns true if the account
// changed. The credit happens on the transition, never again: a client that
// was offline when the cycle ended gets it on the next load.
func SettleExpired(acc *models.Account, now time.Time) bool {
	changed := false
	for i := range acc.Devices {
		d := &acc.Devices[i]
		if d.Status != models.DeviceRunning || d.ExpiresAt == nil {
			continue
		}
		if now.Before(*d.ExpiresAt) {
			continue
		}
		total := accrual.CycleTotalCents(d.PriceAtPurchaseCents, d.DailyRatePercent, d.DurationDays)
		d.Status = models.DeviceCompleted
		acc.BalanceCents += total
		acc.TotalEarningsCents += total
		acc.Notify("Cycle completed", fmt.Sprintf("%s finished its cycle and earned $%.2f.", d.Name, float64(total)/100), models.NotificationSuccess)
		changed = true
	}
	if changed {
		acc.LastProfitUpdate = now
	}
	return changed
}

// View is a device together with its live accrual figures.
type View struct {
	models.Device
	AccruedCents     int64   `json:"accrued_cents"`
	CycleTotalCents  int64   `json:"cycle_total_cents"`
	Progress         float64 `json:"progress"`
	RemainingSeconds int64   `json:"remaining_seconds"`
}

func NewView(d *models.Device, now time.Time) View {
	return View{
		Device:           *d,
		AccruedCents:     accrual.AccruedCents(d, now),
		CycleTotalCents:  accrual.CycleTotalCents(d.PriceAtPurchaseCents, d.DailyRatePercent, d.DurationDays),
		Progress:         accrual.Progress(d, now),
		RemainingSeconds: int64(accrual.Remaining(d, now).Seconds()),
	}
}
