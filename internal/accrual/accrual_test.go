package accrual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minecloud/backend/internal/models"
)

func runningDevice(priceCents int64, rate float64, days int, activated time.Time) *models.Device {
	expires := activated.Add(time.Duration(days) * 24 * time.Hour)
	return &models.Device{
		InstanceID:           models.NewDeviceID(),
		PriceAtPurchaseCents: priceCents,
		DailyRatePercent:     rate,
		DurationDays:         days,
		Status:               models.DeviceRunning,
		ActivatedAt:          &activated,
		ExpiresAt:            &expires,
	}
}

func TestCycleTotalCents(t *testing.T) {
	// $40 at 2.0%/day for 3 days -> $2.40
	assert.Equal(t, int64(240), CycleTotalCents(4000, 2.0, 3))
	// $12 at 2.5%/day for 15 days -> $4.50
	assert.Equal(t, int64(450), CycleTotalCents(1200, 2.5, 15))
	// gift: $5 at 100%/day for 1 day -> $5
	assert.Equal(t, int64(500), CycleTotalCents(500, 100, 1))
}

func TestAccruedCents(t *testing.T) {
	activated := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := runningDevice(4000, 2.0, 3, activated)

	// Zero at activation.
	assert.Equal(t, int64(0), AccruedCents(d, activated))

	// After exactly one day: 40 * 2% = $0.80.
	assert.Equal(t, int64(80), AccruedCents(d, activated.Add(24*time.Hour)))

	// At expiry and beyond: capped at the full $2.40.
	assert.Equal(t, int64(240), AccruedCents(d, activated.Add(3*24*time.Hour)))
	assert.Equal(t, int64(240), AccruedCents(d, activated.Add(30*24*time.Hour)))
}

func TestAccruedCentsNonDecreasing(t *testing.T) {
	activated := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := runningDevice(1200, 2.5, 15, activated)

	prev := int64(-1)
	for h := 0; h <= 16*24; h += 7 {
		got := AccruedCents(d, activated.Add(time.Duration(h)*time.Hour))
		require.GreaterOrEqual(t, got, prev, "accrual regressed at hour %d", h)
		require.LessOrEqual(t, got, CycleTotalCents(1200, 2.5, 15))
		prev = got
	}
}

func TestAccruedCentsIdleAndCompleted(t *testing.T) {
	idle := &models.Device{Status: models.DeviceIdle, PriceAtPurchaseCents: 4000}
	assert.Equal(t, int64(0), AccruedCents(idle, time.Now()))

	done := &models.Device{
		Status:               models.DeviceCompleted,
		PriceAtPurchaseCents: 4000,
		DailyRatePercent:     2.0,
		DurationDays:         3,
	}
	assert.Equal(t, int64(240), AccruedCents(done, time.Now()))
}

func TestAccruedCentsClockSkew(t *testing.T) {
	activated := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := runningDevice(4000, 2.0, 3, activated)

	// A reading before activation never goes negative.
	assert.Equal(t, int64(0), AccruedCents(d, activated.Add(-time.Hour)))
}

func TestProgressAndRemaining(t *testing.T) {
	activated := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := runningDevice(4000, 2.0, 4, activated)

	assert.InDelta(t, 0.25, Progress(d, activated.Add(24*time.Hour)), 1e-9)
	assert.Equal(t, 3*24*time.Hour, Remaining(d, activated.Add(24*time.Hour)))

	past := activated.Add(10 * 24 * time.Hour)
	assert.Equal(t, 1.0, Progress(d, past))
	assert.Equal(t, time.Duration(0), Remaining(d, past))
}
