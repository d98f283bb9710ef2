package models

import (
	"time"

	"github.com/google/uuid"
)

type DeviceStatus string

const (
	DeviceIdle      DeviceStatus = "IDLE"
	DeviceRunning   DeviceStatus = "RUNNING"
	DeviceCompleted DeviceStatus = "COMPLETED"
)

// Device is a purchased or granted unit that can be activated into a
// time-boxed profit cycle. Status only ever moves IDLE -> RUNNING ->
// COMPLETED; it never regresses.
type Device struct {
	InstanceID    string `json:"instance_id"`
	CatalogItemID string `json:"catalog_item_id"`
	Name          string `json:"name"`
	Icon          string `json:"icon,omitempty"`

	PriceAtPurchaseCents int64 `json:"price_at_purchase_cents"`

	// Cycle parameters, set on activation. Each activation may carry its
	// own rate and duration (differentiated offers).
	DailyRatePercent float64 `json:"daily_rate_percent"`
	DurationDays     int     `json:"duration_days"`

	Status      DeviceStatus `json:"status"`
	PurchasedAt time.Time    `json:"purchased_at"`
	ActivatedAt *time.Time   `json:"activated_at,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// IsGift reports whether the device came from the one-time welcome grant.
func (d *Device) IsGift() bool {
	return len(d.InstanceID) > 5 && d.InstanceID[:5] == "GIFT-"
}

// NewDeviceID returns a device instance id. Gift instances carry the GIFT-
// prefix so operators can tell grants from purchases at a glance; the suffix
// is a uuid so ids cannot collide.
func NewDeviceID() string { return "D-" + uuid.NewString() }

// NewGiftID returns an instance id for the welcome grant.
func NewGiftID() string { return "GIFT-" + uuid.NewString() }
