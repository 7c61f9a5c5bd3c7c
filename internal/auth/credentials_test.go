package auth_test

import (
	"testing"

	"github.com/intellibotic/bot-api/internal/auth"
	"github.com/intellibotic/bot-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCredentials_Authenticate(t *testing.T) {
	creds := auth.NewCredentials(&config.AuthConfig{
		AdminUsername: "admin",
		AdminPassword: "s3cret",
	})

	tests := []struct {
		name     string
		username string
		password string
		expected bool
	}{
		{"valid credentials", "admin", "s3cret", true},
		{"wrong password", "admin", "wrong", false},
		{"wrong username", "someone", "s3cret", false},
		{"both wrong", "someone", "wrong", false},
		{"empty username", "", "s3cret", false},
		{"empty password", "admin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, creds.Authenticate(tt.username, tt.password))
		})
	}
}

func TestCredentials_Username(t *testing.T) {
	creds := auth.NewCredentials(&config.AuthConfig{
		AdminUsername: "admin",
		AdminPassword: "s3cret",
	})

	assert.Equal(t, "admin", creds.Username())
}
