package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minecloud/backend/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		isAdmin bool
		role    string
		want    string
	}{
		{"plain user", false, "user", User},
		{"empty role", false, "", User},
		{"flag set", true, "user", Admin},
		{"role column admin", false, "admin", Admin},
		{"role column mixed case", false, "Admin", Admin},
		{"role column uppercase", false, "ADMIN", Admin},
		{"both", true, "admin", Admin},
		{"unrelated role", false, "moderator", User},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.isAdmin, tt.role))
		})
	}
}

// A tampered document body claiming ADMIN must not influence resolution:
// authority comes only from the backend columns.
func TestResolveIgnoresDocumentLabel(t *testing.T) {
	p := models.Profile{IsAdmin: false, Role: "user"}
	p.Account.Role = "ADMIN" // client-writable label

	assert.Equal(t, User, Resolve(p.IsAdmin, p.Role))
}
