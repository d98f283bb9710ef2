package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minecloud/backend/internal/middleware"
)

const (
	defaultListLimit = 100
	maxMessageLen    = 500
)

type PostRequest struct {
	Message string `json:"message"`
}

type Handler struct {
	repo *Repository
	log  *slog.Logger
}

func NewHandler(repo *Repository, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repo: repo, log: log}
}

// GET /api/v1/chat
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.repo.List(r.Context(), defaultListLimit)
	if err != nil {
		h.log.Error("list chat", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// POST /api/v1/chat
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" || len(msg) > maxMessageLen {
		http.Error(w, "message empty or too long", http.StatusBadRequest)
		return
	}
	m, err := h.repo.Append(r.Context(), p.Email, p.Role, msg)
	if err != nil {
		h.log.Error("post chat", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
