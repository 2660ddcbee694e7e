package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantRole Role
		wantErr  error
	}{
		{"admin", "Admin", "Admin123", RoleAdmin, nil},
		{"user", "User", "User123", RoleUser, nil},
		{"trimmed name", " User ", "User123", RoleUser, nil},
		{"wrong password", "Admin", "admin123", "", ErrUnauthorized},
		{"unknown", "Guest", "Guest123", "", ErrUnauthorized},
		{"empty name", "", "Admin123", "", ErrMissingCredentials},
		{"empty password", "Admin", "", "", ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := Check(tt.user, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require("Admin", "Admin123", RoleAdmin))
	assert.ErrorIs(t, Require("User", "User123", RoleAdmin), ErrUnauthorized)
	assert.ErrorIs(t, Require("", "", RoleUser), ErrMissingCredentials)
}
