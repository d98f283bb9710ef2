// Package sweep runs the periodic settle pass: the same lazy expiry
// settlement that happens on every load, applied store-wide so a running
// device cannot sit past its expiry just because its owner never loads the
// account.
package sweep

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

type SettleSweepArgs struct{}

func (SettleSweepArgs) Kind() string { return "settle_sweep" }

// ProfileLister enumerates every account id.
type ProfileLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// AccountSyncer loads one account with lazy settlement applied and
// persisted.
type AccountSyncer interface {
	Sync(ctx context.Context, accountID uuid.UUID) (*models.Profile, error)
}

type SettleSweepWorker struct {
	river.WorkerDefaults[SettleSweepArgs]
	profiles ProfileLister
	devices  AccountSyncer
	log      *slog.Logger
}

func NewSettleSweepWorker(profiles ProfileLister, devices AccountSyncer, log *slog.Logger) *SettleSweepWorker {
	if log == nil {
		log = slog.Default()
	}
	return &SettleSweepWorker{profiles: profiles, devices: devices, log: log}
}

func (w *SettleSweepWorker) Work(ctx context.Context, job *river.Job[SettleSweepArgs]) error {
	ids, err := w.profiles.ListIDs(ctx)
	if err != nil {
		return err
	}
	var failed int
	for _, id := range ids {
		if _, err := w.devices.Sync(ctx, id); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// A concurrent writer got there first; the next sweep
				// or their own load settles it.
				continue
			}
			failed++
			w.log.Error("settle sweep: account failed", "account_id", id, "error", err)
		}
	}
	w.log.Info("settle sweep finished", "accounts", len(ids), "failed", failed)
	return nil
}
