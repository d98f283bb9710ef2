// Package roles derives the effective permission level from the
// backend-controlled authority columns. The role label embedded in the
// account document is client-writable and must never reach this decision.
package roles

import "strings"

const (
	User  = "USER"
	Admin = "ADMIN"
)

// Resolve returns ADMIN iff the backend boolean flag is set or the backend
// role column equals "admin" case-insensitively. Everything else is USER.
func Resolve(isAdmin bool, role string) string {
	if isAdmin || strings.EqualFold(role, "admin") {
		return Admin
	}
	return User
}
