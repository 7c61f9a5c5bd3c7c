package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/intellibotic/bot-api/internal/auth"
	"github.com/intellibotic/bot-api/internal/config"
	"github.com/intellibotic/bot-api/internal/domain"
	"github.com/intellibotic/bot-api/internal/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuthHandler() (*handler.AuthHandler, *auth.TokenIssuer) {
	cfg := &config.AuthConfig{
		AdminUsername:      "admin",
		AdminPassword:      "s3cret",
		JWTSecret:          "test-signing-secret",
		TokenExpiryMinutes: 30,
	}
	issuer := auth.NewTokenIssuer(cfg)
	h := handler.NewAuthHandler(auth.NewCredentials(cfg), issuer, zap.NewNop())
	return h, issuer
}

func TestAuthHandler_Login(t *testing.T) {
	h, issuer := setupAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)

	// Issued token verifies back to the admin subject
	subject, err := issuer.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestAuthHandler_Login_LegacyFullNameField(t *testing.T) {
	h, _ := setupAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"full_name":"admin","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Login_Rejections(t *testing.T) {
	h, _ := setupAuthHandler()

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"wrong password", `{"username":"admin","password":"wrong"}`, http.StatusUnauthorized},
		{"wrong username", `{"username":"other","password":"s3cret"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
			if tt.expected == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h, _ := setupAuthHandler()

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Subject: "admin"}))
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.MeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "admin", resp.Username)
	})

	t.Run("no identity in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
