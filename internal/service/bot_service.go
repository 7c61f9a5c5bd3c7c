package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/domain"
	"github.com/intellibotic/bot-api/internal/mirror"
	"github.com/intellibotic/bot-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BotService orchestrates the bot record store and the mirror files.
// It is the sole writer of both: every successful store mutation is followed,
// in the same logical operation, by the matching mirror write or delete.
// A mirror failure after the row commit is logged, not rolled back; the
// reconcile routine converges the mirror back to the store.
type BotService struct {
	botRepo *repository.BotRepository
	mirror  mirror.Store
	logger  *zap.Logger
}

func NewBotService(botRepo *repository.BotRepository, mirrorStore mirror.Store, logger *zap.Logger) *BotService {
	return &BotService{
		botRepo: botRepo,
		mirror:  mirrorStore,
		logger:  logger,
	}
}

// Create assigns an id and timestamps, inserts the row, and writes the
// mirror file. Fails with ErrConflict when the name is already held by a
// live bot.
func (s *BotService) Create(ctx context.Context, req *domain.CreateBotRequest) (*domain.BotDTO, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(req.Config) == 0 {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidInput)
	}

	// Pre-check for a friendly error; the unique index is the authoritative
	// guard under concurrent creates.
	taken, err := s.botRepo.NameTaken(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check bot name: %w", err)
	}
	if taken {
		return nil, ErrConflict
	}

	bot := &domain.Bot{
		Name:        req.Name,
		Description: req.Description,
		Config:      datatypes.JSON(req.Config),
	}

	if err := s.botRepo.Create(ctx, bot); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if err := s.mirror.Write(ctx, bot.ID, bot.Name, json.RawMessage(bot.Config)); err != nil {
		// Row is committed; the mirror is a derived cache and reconcile
		// will restore it. Surface the inconsistency in the log only.
		s.logger.Error("mirror write failed after create",
			zap.String("bot_id", bot.ID.String()),
			zap.String("bot_name", bot.Name),
			zap.Error(err),
		)
	}

	s.logger.Info("bot created",
		zap.String("bot_id", bot.ID.String()),
		zap.String("bot_name", bot.Name),
	)

	dto := domain.ToBotDTO(bot)
	return &dto, nil
}

// List returns all bots. Order is unspecified.
func (s *BotService) List(ctx context.Context) ([]domain.BotDTO, error) {
	bots, err := s.botRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}

	dtos := make([]domain.BotDTO, len(bots))
	for i := range bots {
		dtos[i] = domain.ToBotDTO(&bots[i])
	}
	return dtos, nil
}

func (s *BotService) Get(ctx context.Context, id uuid.UUID) (*domain.BotDTO, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := domain.ToBotDTO(bot)
	return &dto, nil
}

// Update applies a partial patch. Renaming to a name held by a different
// live bot fails with ErrConflict before anything is written; on success the
// mirror file under the pre-update name is deleted and a new one is written
// under the post-update name.
func (s *BotService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateBotRequest) (*domain.BotDTO, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}

	oldName := bot.Name

	if req.Name != nil && *req.Name != bot.Name {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		taken, err := s.botRepo.NameTaken(ctx, *req.Name, bot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check bot name: %w", err)
		}
		if taken {
			return nil, ErrConflict
		}
		bot.Name = *req.Name
	}

	if req.Description != nil {
		bot.Description = *req.Description
	}

	if len(req.Config) > 0 {
		bot.Config = datatypes.JSON(req.Config)
	}

	if err := s.botRepo.Update(ctx, bot); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update bot: %w", err)
	}

	// Resync the mirror: drop the file keyed by the pre-update name, write
	// the one keyed by the post-update name. Same file when the name is
	// unchanged, so delete-then-write still leaves the fresh snapshot.
	if err := s.mirror.Delete(ctx, bot.ID, oldName); err != nil {
		s.logger.Error("mirror delete failed after update",
			zap.String("bot_id", bot.ID.String()),
			zap.String("old_name", oldName),
			zap.Error(err),
		)
	}
	if err := s.mirror.Write(ctx, bot.ID, bot.Name, json.RawMessage(bot.Config)); err != nil {
		s.logger.Error("mirror write failed after update",
			zap.String("bot_id", bot.ID.String()),
			zap.String("bot_name", bot.Name),
			zap.Error(err),
		)
	}

	s.logger.Info("bot updated",
		zap.String("bot_id", bot.ID.String()),
		zap.String("bot_name", bot.Name),
	)

	dto := domain.ToBotDTO(bot)
	return &dto, nil
}

// Delete removes the mirror file and then the store row
func (s *BotService) Delete(ctx context.Context, id uuid.UUID) error {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return err
	}

	if err := s.mirror.Delete(ctx, bot.ID, bot.Name); err != nil {
		s.logger.Error("mirror delete failed",
			zap.String("bot_id", bot.ID.String()),
			zap.String("bot_name", bot.Name),
			zap.Error(err),
		)
	}

	deleted, err := s.botRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.Info("bot deleted",
		zap.String("bot_id", bot.ID.String()),
		zap.String("bot_name", bot.Name),
	)
	return nil
}

// Export returns the bot as a standalone portable JSON document
func (s *BotService) Export(ctx context.Context, id uuid.UUID) (*domain.BotExportDTO, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := domain.ToBotExportDTO(bot)
	return &doc, nil
}

// Import validates an uploaded document and delegates to Create; Conflict
// semantics for duplicate names are preserved.
func (s *BotService) Import(ctx context.Context, document []byte) (*domain.BotDTO, error) {
	var req domain.ImportBotRequest
	if err := json.Unmarshal(document, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON format", ErrInvalidInput)
	}

	if req.Name == "" || len(req.Config) == 0 {
		return nil, fmt.Errorf("%w: name and config are required", ErrInvalidInput)
	}

	return s.Create(ctx, &domain.CreateBotRequest{
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
	})
}

// ReconcileMirrors regenerates every mirror file from the store and removes
// mirror files that no longer correspond to a live bot. The mirror is a
// derived cache, so a reconcile run converges it after any missed write.
func (s *BotService) ReconcileMirrors(ctx context.Context) (*domain.ReconcileResultDTO, error) {
	bots, err := s.botRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}

	expected := make(map[string]bool, len(bots))
	result := &domain.ReconcileResultDTO{}

	for i := range bots {
		bot := &bots[i]
		expected[mirror.Filename(bot.ID, bot.Name)] = true
		if err := s.mirror.Write(ctx, bot.ID, bot.Name, json.RawMessage(bot.Config)); err != nil {
			return nil, fmt.Errorf("failed to rewrite mirror for bot %s: %w", bot.ID, err)
		}
		result.Rewritten++
	}

	existing, err := s.mirror.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirror files: %w", err)
	}

	for _, filename := range existing {
		if expected[filename] {
			continue
		}
		if err := s.mirror.Remove(ctx, filename); err != nil {
			return nil, fmt.Errorf("failed to remove orphan mirror %s: %w", filename, err)
		}
		result.Removed++
	}

	s.logger.Info("mirror reconciliation complete",
		zap.Int("rewritten", result.Rewritten),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

func (s *BotService) getBot(ctx context.Context, id uuid.UUID) (*domain.Bot, error) {
	bot, err := s.botRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}
	return bot, nil
}
