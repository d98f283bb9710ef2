// Package accrual computes time-proportional earnings for running devices.
// Accrual is a pure function of time, not a persisted counter: callers
// recompute it on every read and the durable balance only changes when a
// cycle settles on completion.
package accrual

import (
	"math"
	"time"

	"github.com/minecloud/backend/internal/models"
)

// CycleTotalCents is the full payout of one cycle:
// price * rate/100 * durationDays, rounded to the nearest cent.
func CycleTotalCents(priceCents int64, ratePercent float64, durationDays int) int64 {
	return int64(math.Round(float64(priceCents) * ratePercent / 100 * float64(durationDays)))
}

// AccruedCents returns the instantaneous accrued value of a device at now.
// Zero for idle devices and at (or before) activation, the full cycle total
// at or after expiry, and linear in elapsed time in between. Never exceeds
// the cycle total, and is non-decreasing in now while the device runs.
func AccruedCents(d *models.Device, now time.Time) int64 {
	switch d.Status {
	case models.DeviceIdle:
		return 0
	case models.DeviceCompleted:
		return CycleTotalCents(d.PriceAtPurchaseCents, d.DailyRatePercent, d.DurationDays)
	}
	if d.ActivatedAt == nil || d.ExpiresAt == nil {
		return 0
	}
	total := CycleTotalCents(d.PriceAtPurchaseCents, d.DailyRatePercent, d.DurationDays)
	cycle := d.ExpiresAt.Sub(*d.ActivatedAt)
	if cycle <= 0 {
		// Degenerate zero-duration cycle: the whole total is due.
		return total
	}
	elapsed := now.Sub(*d.ActivatedAt)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= cycle {
		return total
	}
	return int64(math.Round(float64(total) * (float64(elapsed) / float64(cycle))))
}

// Progress returns cycle completion in [0, 1].
func Progress(d *models.Device, now time.Time) float64 {
	if d.Status == models.DeviceCompleted {
		return 1
	}
	if d.Status != models.DeviceRunning || d.ActivatedAt == nil || d.ExpiresAt == nil {
		return 0
	}
	cycle := d.ExpiresAt.Sub(*d.ActivatedAt)
	if cycle <= 0 {
		return 1
	}
	p := float64(now.Sub(*d.ActivatedAt)) / float64(cycle)
	return math.Min(1, math.Max(0, p))
}

// Remaining returns time left until expiry, or zero once the cycle is over.
func Remaining(d *models.Device, now time.Time) time.Duration {
	if d.Status != models.DeviceRunning || d.ExpiresAt == nil {
		return 0
	}
	r := d.ExpiresAt.Sub(now)
	if r < 0 {
		return 0
	}
	return r
}
