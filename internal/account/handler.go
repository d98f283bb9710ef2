// Package account serves the authenticated user's own profile surface.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/devices"
	"github.com/minecloud/backend/internal/middleware"
	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

// ProfileStore is the slice of the record store this handler needs for the
// small latch/notification mutations.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
}

// Syncer loads an account with lazy expiry settlement applied.
type Syncer interface {
	Sync(ctx context.Context, accountID uuid.UUID) (*models.Profile, error)
}

type MeResponse struct {
	Account models.Account `json:"account"`
	Devices []devices.View `json:"devices"`
}

type Handler struct {
	profiles ProfileStore
	syncer   Syncer
	log      *slog.Logger
	now      func() time.Time
}

func NewHandler(profiles ProfileStore, syncer Syncer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{profiles: profiles, syncer: syncer, log: log, now: time.Now}
}

// GET /api/v1/account/me is the session-restore read. Runs the lazy
// observe-and-settle pass and returns the account with live accrual views.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	p, err := h.syncer.Sync(r.Context(), principal.ID)
	if err != nil {
		h.fail(w, "load account", err)
		return
	}
	now := h.now().UTC()
	views := make([]devices.View, len(p.Account.Devices))
	for i := range p.Account.Devices {
		views[i] = devices.NewView(&p.Account.Devices[i], now)
	}
	writeJSON(w, http.StatusOK, MeResponse{Account: p.Account, Devices: views})
}

// POST /api/v1/account/onboarding-seen sets the one-way latch; repeat calls
// are no-ops.
func (h *Handler) MarkOnboardingSeen(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "onboarding latch", func(acc *models.Account) bool {
		if acc.HasSeenOnboarding {
			return false
		}
		acc.HasSeenOnboarding = true
		return true
	})
}

// POST /api/v1/account/notifications/read
func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "mark notifications read", func(acc *models.Account) bool {
		changed := false
		for i := range acc.Notifications {
			if !acc.Notifications[i].IsRead {
				acc.Notifications[i].IsRead = true
				changed = true
			}
		}
		return changed
	})
}

// DELETE /api/v1/account/notifications
func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "clear notifications", func(acc *models.Account) bool {
		if len(acc.Notifications) == 0 {
			return false
		}
		acc.Notifications = []models.Notification{}
		return true
	})
}

// mutate applies a document change and saves only when something changed.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, apply func(*models.Account) bool) {
	principal := middleware.PrincipalFromCtx(r.Context())
	p, err := h.profiles.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	if apply(&p.Account) {
		if err := h.profiles.Save(r.Context(), p); err != nil {
			h.fail(w, op, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p.Account)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, "record changed, retry", http.StatusConflict)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
