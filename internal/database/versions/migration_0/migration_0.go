package migration_0

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID             uint      `gorm:"primaryKey"`
	Username       string    `gorm:"uniqueIndex;size:64;not null"`
	Email          string    `gorm:"uniqueIndex;size:255;not null"`
	HashedPassword string    `gorm:"not null"`
	CreatedAt      time.Time
}

type ChatSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uint      `gorm:"index;not null"`
	Title      string
	CreatedAt  time.Time
	LastActive time.Time `gorm:"index"`
}

type ChatMessage struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   uuid.UUID `gorm:"type:uuid;index;not null"`
	MessageType string    `gorm:"size:10;not null"`
	Content     string
	Timestamp   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	Metadata    datatypes.JSON
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &ChatSession{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("Migration0 failed: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&ChatMessage{}, &ChatSession{}, &User{}); err != nil {
		return fmt.Errorf("Rollback0 failed: %w", err)
	}
	return nil
}
