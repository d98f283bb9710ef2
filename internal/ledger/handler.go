package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minecloud/backend/internal/middleware"
	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

type DepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	TxHash      string `json:"tx_hash"`
}

type WithdrawalRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Address     string `json:"address"`
}

type Handler struct {
	svc      Service
	profiles ProfileStore
	log      *slog.Logger
}

func NewHandler(svc Service, profiles ProfileStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, profiles: profiles, log: log}
}

// POST /api/v1/wallet/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tx, err := h.svc.RequestDeposit(r.Context(), p.ID, req.AmountCents, req.TxHash)
	if err != nil {
		h.failRequest(w, "deposit", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// POST /api/v1/wallet/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		http.Error(w, "missing destination address", http.StatusBadRequest)
		return
	}
	tx, err := h.svc.RequestWithdrawal(r.Context(), p.ID, req.AmountCents, req.Address)
	if err != nil {
		h.failRequest(w, "withdraw", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// GET /api/v1/wallet/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	profile, err := h.profiles.GetByID(r.Context(), p.ID)
	if err != nil {
		h.failRequest(w, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, profile.Account.Transactions)
}

// GET /api/v1/wallet/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"deposit_address":        models.AdminWalletAddress,
		"min_deposit_cents":      models.MinDepositCents,
		"min_withdrawal_cents":   models.MinWithdrawalCents,
		"withdrawal_fee_percent": models.WithdrawalFeePercent,
	})
}

func (h *Handler) failRequest(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBelowMinimum):
		http.Error(w, "amount below minimum", http.StatusBadRequest)
	case errors.Is(err, ErrInsufficientFunds):
		http.Error(w, "insufficient funds", http.StatusUnprocessableEntity)
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
