package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Bot is a named record holding an opaque conversation flow configuration.
// The config payload is never interpreted by the service; it is stored as-is
// and mirrored to a JSON file on every mutation.
type Bot struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:varchar(255)" json:"description,omitempty"`
	Config      datatypes.JSON `gorm:"not null" json:"config"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// BeforeCreate assigns the immutable bot ID. Done in a hook rather than a
// database default so the same model works on Postgres and the sqlite
// databases used in tests.
func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
