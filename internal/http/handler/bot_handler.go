package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/domain"
	"github.com/intellibotic/bot-api/internal/service"
	"go.uber.org/zap"
)

// maxImportSize bounds uploaded import documents (bytes)
const maxImportSize = 10 << 20

// BotHandler handles HTTP requests for bots
type BotHandler struct {
	botService *service.BotService
	logger     *zap.Logger
}

// NewBotHandler creates a new BotHandler
func NewBotHandler(botService *service.BotService, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		botService: botService,
		logger:     logger,
	}
}

// List godoc
// @Summary List bots
// @Description Get all bot definitions
// @Tags Bots
// @Produce json
// @Success 200 {array} domain.BotDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /bots [get]
func (h *BotHandler) List(w http.ResponseWriter, r *http.Request) {
	bots, err := h.botService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list bots", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list bots")
		return
	}

	respondJSON(w, http.StatusOK, bots)
}

// Create godoc
// @Summary Create bot
// @Description Create a new bot with an opaque flow configuration
// @Tags Bots
// @Accept json
// @Produce json
// @Param bot body domain.CreateBotRequest true "Bot to create"
// @Success 201 {object} domain.BotDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /bots [post]
func (h *BotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bot, err := h.botService.Create(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create bot")
		return
	}

	respondJSON(w, http.StatusCreated, bot)
}

// Get godoc
// @Summary Get bot
// @Description Get a bot by ID
// @Tags Bots
// @Produce json
// @Param id path string true "Bot ID"
// @Success 200 {object} domain.BotDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/{id} [get]
func (h *BotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	bot, err := h.botService.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get bot")
		return
	}

	respondJSON(w, http.StatusOK, bot)
}

// Update godoc
// @Summary Update bot
// @Description Apply a partial patch to a bot; omitted fields are unchanged
// @Tags Bots
// @Accept json
// @Produce json
// @Param id path string true "Bot ID"
// @Param patch body domain.UpdateBotRequest true "Fields to update"
// @Success 200 {object} domain.BotDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/{id} [put]
func (h *BotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bot, err := h.botService.Update(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update bot")
		return
	}

	respondJSON(w, http.StatusOK, bot)
}

// Delete godoc
// @Summary Delete bot
// @Description Delete a bot and its mirror file
// @Tags Bots
// @Param id path string true "Bot ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/{id} [delete]
func (h *BotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.botService.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "Failed to delete bot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export godoc
// @Summary Export bot
// @Description Return the bot as a standalone portable JSON document
// @Tags Bots
// @Produce json
// @Param id path string true "Bot ID"
// @Success 200 {object} domain.BotExportDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/{id}/export [post]
func (h *BotHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	doc, err := h.botService.Export(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to export bot")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Import godoc
// @Summary Import bot
// @Description Create a bot from an uploaded JSON document (multipart "file" field or raw JSON body)
// @Tags Bots
// @Accept json
// @Accept mpfd
// @Produce json
// @Param file formData file false "Bot document"
// @Success 201 {object} domain.BotDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/import [post]
func (h *BotHandler) Import(w http.ResponseWriter, r *http.Request) {
	document, err := h.readImportDocument(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bot, err := h.botService.Import(r.Context(), document)
	if err != nil {
		h.respondServiceError(w, err, "Failed to import bot")
		return
	}

	respondJSON(w, http.StatusCreated, bot)
}

// Reconcile godoc
// @Summary Reconcile mirror files
// @Description Regenerate all mirror files from the record store and remove orphans
// @Tags Bots
// @Produce json
// @Success 200 {object} domain.ReconcileResultDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /bots/reconcile [post]
func (h *BotHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.botService.ReconcileMirrors(r.Context())
	if err != nil {
		h.logger.Error("mirror reconciliation failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to reconcile mirrors")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// readImportDocument accepts either a multipart upload with a "file" field
// (the original transport) or a raw JSON body
func (h *BotHandler) readImportDocument(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportSize)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, errors.New("Invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("Missing file field")
		}
		defer file.Close()

		document, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("Failed to read uploaded file")
		}
		return document, nil
	}

	document, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("Failed to read request body")
	}
	return document, nil
}

func (h *BotHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bot ID: must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service sentinel errors to HTTP statuses.
// Internal detail never reaches the response body.
func (h *BotHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Bot not found")
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, "Bot name already exists")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}
