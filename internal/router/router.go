package router

import (
	"net/http"

	"github.com/minecloud/backend/internal/account"
	"github.com/minecloud/backend/internal/admin"
	"github.com/minecloud/backend/internal/auth"
	"github.com/minecloud/backend/internal/chat"
	"github.com/minecloud/backend/internal/devices"
	"github.com/minecloud/backend/internal/ledger"
	"github.com/minecloud/backend/internal/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth    *auth.Handler
	Account *account.Handler
	Devices *devices.Handler
	Wallet  *ledger.Handler
	Chat    *chat.Handler
	Admin   *admin.Handler
}

// New returns an http.Handler serving the API under /api/v1. Public routes
// are auth only; everything else requires a valid principal, and the admin
// surface additionally requires the resolved role to be elevated.
func New(h Handlers, authMW func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	// Public.
	mux.HandleFunc("POST "+base+"/auth/register", h.Auth.Register)
	mux.HandleFunc("POST "+base+"/auth/login", h.Auth.Login)
	mux.HandleFunc("GET "+base+"/auth/email-exists", h.Auth.EmailExists)
	mux.HandleFunc("POST "+base+"/auth/reset-password", h.Auth.ResetPassword)

	authed := func(fn http.HandlerFunc) http.Handler { return authMW(fn) }
	adminOnly := func(fn http.HandlerFunc) http.Handler { return authMW(middleware.RequireAdmin(fn)) }

	// Account.
	mux.Handle("GET "+base+"/account/me", authed(h.Account.GetMe))
	mux.Handle("POST "+base+"/account/onboarding-seen", authed(h.Account.MarkOnboardingSeen))
	mux.Handle("POST "+base+"/account/notifications/read", authed(h.Account.MarkNotificationsRead))
	mux.Handle("DELETE "+base+"/account/notifications", authed(h.Account.ClearNotifications))

	// Catalog & devices.
	mux.Handle("GET "+base+"/catalog", authed(h.Devices.Catalog))
	mux.Handle("GET "+base+"/devices", authed(h.Devices.List))
	mux.Handle("POST "+base+"/devices/purchase", authed(h.Devices.Purchase))
	mux.Handle("POST "+base+"/devices/{id}/activate", authed(h.Devices.Activate))
	mux.Handle("POST "+base+"/devices/claim-gift", authed(h.Devices.ClaimGift))

	// Wallet.
	mux.Handle("GET "+base+"/wallet/info", authed(h.Wallet.Info))
	mux.Handle("POST "+base+"/wallet/deposit", authed(h.Wallet.Deposit))
	mux.Handle("POST "+base+"/wallet/withdraw", authed(h.Wallet.Withdraw))
	mux.Handle("GET "+base+"/wallet/transactions", authed(h.Wallet.ListTransactions))

	// Chat.
	mux.Handle("GET "+base+"/chat", authed(h.Chat.List))
	mux.Handle("POST "+base+"/chat", authed(h.Chat.Post))

	// Admin.
	mux.Handle("GET "+base+"/admin/users", adminOnly(h.Admin.ListUsers))
	mux.Handle("GET "+base+"/admin/transactions", adminOnly(h.Admin.ListPendingTransactions))
	mux.Handle("POST "+base+"/admin/accounts/{id}/transactions/{txId}/approve", adminOnly(h.Admin.ApproveTransaction))
	mux.Handle("POST "+base+"/admin/accounts/{id}/transactions/{txId}/reject", adminOnly(h.Admin.RejectTransaction))
	mux.Handle("PUT "+base+"/admin/accounts/{id}/role", adminOnly(h.Admin.SetRole))
	mux.Handle("DELETE "+base+"/admin/chat/{id}", adminOnly(h.Admin.DeleteChatMessage))

	return mux
}
