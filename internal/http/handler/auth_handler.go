package handler

import (
	"encoding/json"
	"net/http"

	"github.com/intellibotic/bot-api/internal/auth"
	"github.com/intellibotic/bot-api/internal/domain"
	"go.uber.org/zap"
)

// AuthHandler handles authentication requests for the single configured
// administrative identity
type AuthHandler struct {
	credentials *auth.Credentials
	issuer      *auth.TokenIssuer
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(credentials *auth.Credentials, issuer *auth.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		issuer:      issuer,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticate the administrative identity and issue a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.TokenResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if !h.credentials.Authenticate(req.Identity(), req.Password) {
		h.logger.Warn("failed login attempt",
			zap.String("remote_addr", r.RemoteAddr),
		)
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondWithError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := h.issuer.Issue(h.credentials.Username())
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me godoc
// @Summary Current identity
// @Description Echo the authenticated identity
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, domain.MeResponse{Username: userCtx.Subject})
}
