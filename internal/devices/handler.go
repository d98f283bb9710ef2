package devices

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minecloud/backend/internal/middleware"
	"github.com/minecloud/backend/internal/store"
)

type PurchaseRequest struct {
	CatalogItemID string `json:"catalog_item_id"`
}

type ActivateRequest struct {
	DurationDays     int     `json:"duration_days"`
	DailyRatePercent float64 `json:"daily_rate_percent"`
}

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// GET /api/v1/devices
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	views, err := h.svc.List(r.Context(), p.ID)
	if err != nil {
		h.fail(w, "list devices", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GET /api/v1/catalog
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.catalog.Items())
}

// POST /api/v1/devices/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	dev, err := h.svc.Purchase(r.Context(), p.ID, req.CatalogItemID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownItem):
			http.Error(w, "unknown catalog item", http.StatusNotFound)
		case errors.Is(err, ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusUnprocessableEntity)
		default:
			h.fail(w, "purchase", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

// POST /api/v1/devices/{id}/activate
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	instanceID := r.PathValue("id")
	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	dev, err := h.svc.Activate(r.Context(), p.ID, instanceID, req.DurationDays, req.DailyRatePercent)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCycle):
			http.Error(w, "invalid cycle parameters", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidState):
			http.Error(w, "device cannot be activated", http.StatusConflict)
		default:
			h.fail(w, "activate", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// POST /api/v1/devices/claim-gift
func (h *Handler) ClaimGift(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	dev, err := h.svc.ClaimWelcomeGift(r.Context(), p.ID)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			http.Error(w, "welcome gift already claimed", http.StatusConflict)
			return
		}
		h.fail(w, "claim gift", err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
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
