package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/domain"
	"gorm.io/gorm"
)

// ErrDuplicateName is returned when an insert or rename collides with the
// unique index on the bot name.
var ErrDuplicateName = errors.New("bot name already exists")

type BotRepository struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) Create(ctx context.Context, bot *domain.Bot) error {
	if err := r.db.WithContext(ctx).Create(bot).Error; err != nil {
		return translateDuplicate(err)
	}
	return nil
}

func (r *BotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bot, error) {
	var bot domain.Bot
	err := r.db.WithContext(ctx).First(&bot, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// List returns all bots. Order is unspecified; callers must not rely on it.
func (r *BotRepository) List(ctx context.Context) ([]domain.Bot, error) {
	var bots []domain.Bot
	err := r.db.WithContext(ctx).Find(&bots).Error
	return bots, err
}

func (r *BotRepository) Update(ctx context.Context, bot *domain.Bot) error {
	if err := r.db.WithContext(ctx).Save(bot).Error; err != nil {
		return translateDuplicate(err)
	}
	return nil
}

// Delete removes a bot row and reports whether a row existed
func (r *BotRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Bot{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// NameTaken reports whether a live bot other than excludeID holds the name.
// Exact, byte-wise match; the unique index remains the authoritative check
// under concurrent writes, this only improves error reporting.
func (r *BotRepository) NameTaken(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Bot{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// translateDuplicate maps driver-specific unique violations to
// ErrDuplicateName. TranslateError covers the gorm drivers; the string
// checks catch drivers without an error translator.
func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") {
		return ErrDuplicateName
	}
	return err
}
