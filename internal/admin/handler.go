// Package admin serves the administrator tooling: user oversight, role
// management, chat moderation, and transaction arbitration. Every route is
// behind the admin gate; the target record is always a different user's.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/chat"
	"github.com/minecloud/backend/internal/ledger"
	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

// ProfileStore is the slice of the record store admin tooling needs.
type ProfileStore interface {
	List(ctx context.Context) ([]*models.Profile, error)
	SetRole(ctx context.Context, id uuid.UUID, isAdmin bool, role string) error
}

// UserSummary is the per-account row on the admin dashboard.
type UserSummary struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	BalanceCents int64  `json:"balance_cents"`
	DeviceCount  int    `json:"device_count"`
	PendingTxs   int    `json:"pending_txs"`
}

// PendingTransaction is a pending request joined with its owner.
type PendingTransaction struct {
	AccountID string             `json:"account_id"`
	Email     string             `json:"email"`
	Tx        models.Transaction `json:"transaction"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type Handler struct {
	profiles ProfileStore
	ledger   ledger.Service
	chat     *chat.Repository
	log      *slog.Logger
}

func NewHandler(profiles ProfileStore, ledgerSvc ledger.Service, chatRepo *chat.Repository, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{profiles: profiles, ledger: ledgerSvc, chat: chatRepo, log: log}
}

// GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.log.Error("list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		pending := 0
		for i := range p.Account.Transactions {
			if p.Account.Transactions[i].Status == models.TransactionPending {
				pending++
			}
		}
		out = append(out, UserSummary{
			ID:           p.ID.String(),
			Email:        p.Email,
			Role:         p.Account.Role, // resolved on load, safe for display
			BalanceCents: p.Account.BalanceCents,
			DeviceCount:  len(p.Account.Devices),
			PendingTxs:   pending,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/admin/transactions lists every pending request across accounts.
func (h *Handler) ListPendingTransactions(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.log.Error("list pending", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := []PendingTransaction{}
	for _, p := range profiles {
		for i := range p.Account.Transactions {
			tx := p.Account.Transactions[i]
			if tx.Status == models.TransactionPending {
				out = append(out, PendingTransaction{AccountID: p.ID.String(), Email: p.Email, Tx: tx})
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/v1/admin/accounts/{id}/transactions/{txId}/approve
func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.arbitrate(w, r, h.ledger.Approve)
}

// POST /api/v1/admin/accounts/{id}/transactions/{txId}/reject
func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	h.arbitrate(w, r, h.ledger.Reject)
}

func (h *Handler) arbitrate(w http.ResponseWriter, r *http.Request, resolve func(context.Context, uuid.UUID, string) error) {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	txID := r.PathValue("txId")
	if txID == "" {
		http.Error(w, "missing transaction id", http.StatusBadRequest)
		return
	}
	if err := resolve(r.Context(), targetID, txID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, ledger.ErrTransactionNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrAlreadyProcessed):
			http.Error(w, "transaction already processed", http.StatusConflict)
		case errors.Is(err, store.ErrConflict):
			http.Error(w, "record changed, retry", http.StatusConflict)
		default:
			h.log.Error("arbitration failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// PUT /api/v1/admin/accounts/{id}/role flips the backend authority
// columns. The document label follows on the next load.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != "admin" && role != "user" {
		http.Error(w, "role must be admin or user", http.StatusBadRequest)
		return
	}
	if err := h.profiles.SetRole(r.Context(), targetID, role == "admin", role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		h.log.Error("set role failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DELETE /api/v1/admin/chat/{id}
func (h *Handler) DeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	if err := h.chat.Delete(r.Context(), id); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		h.log.Error("delete chat message", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
