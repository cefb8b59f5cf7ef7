package database

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)

// SQLite only supports one writer at a time, so we need a lock
// whenever we write to the database
var dbMutex sync.Mutex

func CreateUser(db *gorm.DB, user *User) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(user).Error
}

func GetUserByUsername(db *gorm.DB, username string) (User, error) {
	var user User
	err := db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	}
	return user, err
}

func UserExists(db *gorm.DB, username, email string) (bool, error) {
	var count int64
	err := db.Model(&User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	return count > 0, err
}

func CreateSession(db *gorm.DB, session *ChatSession) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(session).Error
}

// GetUserSession returns ErrSessionNotFound both for unknown ids and for
// sessions owned by another user, so callers cannot tell the two apart.
func GetUserSession(db *gorm.DB, userID uint, sessionID uuid.UUID) (ChatSession, error) {
	var session ChatSession
	err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session, ErrSessionNotFound
	}
	return session, err
}

func ListUserSessions(db *gorm.DB, userID uint, limit int) ([]ChatSession, error) {
	var sessions []ChatSession
	err := db.
		Where("user_id = ?", userID).
		Order("last_active DESC").
		Limit(limit).
		Find(&sessions).
		Error
	return sessions, err
}

func TouchSession(db *gorm.DB, sessionID uuid.UUID, at time.Time) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Model(&ChatSession{ID: sessionID}).Update("last_active", at).Error
}

func SaveMessage(db *gorm.DB, message *ChatMessage) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(message).Error
}

func GetSessionMessages(db *gorm.DB, sessionID uuid.UUID) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := db.
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&messages).
		Error
	return messages, err
}
