package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BotDTO is the API representation of a bot
type BotDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Config      json.RawMessage `json:"config"`
	CreatedAt   string          `json:"created_at"` // ISO 8601
	UpdatedAt   string          `json:"updated_at"` // ISO 8601
}

// BotExportDTO is the portable single-bot document produced by export and
// accepted by import. Timestamps are informational; import ignores them.
type BotExportDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Config      json.RawMessage `json:"config"`
	CreatedAt   string          `json:"created_at"` // ISO 8601
	UpdatedAt   string          `json:"updated_at"` // ISO 8601
}

// CreateBotRequest is the body for creating a bot
type CreateBotRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Config      json.RawMessage `json:"config" validate:"required"`
}

// UpdateBotRequest is a partial patch; nil fields are left unchanged
type UpdateBotRequest struct {
	Name        *string         `json:"name" validate:"omitempty,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=255"`
	Config      json.RawMessage `json:"config"`
}

// ImportBotRequest is the uploaded document for import.
// Name and config are required; everything else is optional.
type ImportBotRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

// LoginRequest carries the single-account credentials.
// FullName is the legacy field name kept for older frontend builds.
type LoginRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password" validate:"required"`
}

// Identity returns whichever login field the client supplied
func (r *LoginRequest) Identity() string {
	if r.Username != "" {
		return r.Username
	}
	return r.FullName
}

// TokenResponse is the successful login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MeResponse echoes the authenticated identity
type MeResponse struct {
	Username string `json:"username"`
}

// ReconcileResultDTO reports the outcome of a mirror reconciliation run
type ReconcileResultDTO struct {
	Rewritten int `json:"rewritten"`
	Removed   int `json:"removed"`
}

// ToBotDTO maps a Bot model to its API representation
func ToBotDTO(bot *Bot) BotDTO {
	return BotDTO{
		ID:          bot.ID,
		Name:        bot.Name,
		Description: bot.Description,
		Config:      json.RawMessage(bot.Config),
		CreatedAt:   bot.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   bot.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBotExportDTO maps a Bot model to the portable export document
func ToBotExportDTO(bot *Bot) BotExportDTO {
	return BotExportDTO{
		ID:          bot.ID,
		Name:        bot.Name,
		Description: bot.Description,
		Config:      json.RawMessage(bot.Config),
		CreatedAt:   bot.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   bot.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
