package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MessageTypeUser string = "user"
	MessageTypeAI   string = "ai"
)

type User struct {
	ID             uint      `gorm:"primaryKey"`
	Username       string    `gorm:"uniqueIndex;size:64;not null"`
	Email          string    `gorm:"uniqueIndex;size:255;not null"`
	HashedPassword string    `gorm:"not null"`
	CreatedAt      time.Time
}

type ChatSession struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uint      `gorm:"index;not null"`
	User   *User     `gorm:"foreignKey:UserID"`

	// Truncated prefix of the session's first message, used as a display label.
	Title string

	CreatedAt  time.Time
	LastActive time.Time `gorm:"index"`
}

type ChatMessage struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   uuid.UUID `gorm:"type:uuid;index;not null"`
	MessageType string    `gorm:"size:10;not null"` // 'user' or 'ai'
	Content     string
	Timestamp   time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
	Metadata    datatypes.JSON // {"key": "value"}
}
