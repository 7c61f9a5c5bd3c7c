package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intellibotic/bot-api/internal/auth"
	"github.com/intellibotic/bot-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMiddleware_Authenticate(t *testing.T) {
	issuer := newTestIssuer()
	mw := auth.NewMiddleware(issuer, zap.NewNop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "admin", userCtx.Subject)
		w.WriteHeader(http.StatusOK)
	})

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bots", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.Authenticate(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_Authenticate_Rejections(t *testing.T) {
	issuer := newTestIssuer()
	mw := auth.NewMiddleware(issuer, zap.NewNop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	otherIssuer := auth.NewTokenIssuer(&config.AuthConfig{
		JWTSecret:          "a-different-secret",
		TokenExpiryMinutes: 30,
	})
	foreignToken, err := otherIssuer.Issue("admin")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong key", "Bearer " + foreignToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bots", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestUserContext_RoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := auth.FromContext(req.Context())
	assert.False(t, ok)

	ctx := auth.WithUserContext(req.Context(), &auth.UserContext{Subject: "admin"})
	userCtx, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", userCtx.Subject)
}
