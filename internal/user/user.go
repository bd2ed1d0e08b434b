package user

import (
	"errors"
	"time"
)

// User mirrors the host platform's user directory row. Role (admin) is a
// column; everything office-specific lives in the key-value meta table.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	IsAdmin      bool      `json:"is_admin" gorm:"column:is_admin;default:false"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Meta is one row of the per-user key-value metadata store.
type Meta struct {
	ID     int64  `gorm:"primaryKey"`
	UserID int64  `gorm:"column:user_id;index:idx_user_meta_key,unique"`
	Key    string `gorm:"column:meta_key;index:idx_user_meta_key,unique"`
	Value  string `gorm:"column:meta_value"`
}

func (Meta) TableName() string {
	return "user_meta"
}

// Meta keys. The string values follow the original key-value store so a
// data migration from it stays a straight copy.
const (
	MetaKeyMember              = "is_member"
	MetaKeyEmailEnabled        = "notifications_enabled"
	MetaKeyTelegramEnabled     = "telegram_enabled"
	MetaKeyTelegramChatID      = "telegram_chat_id"
	MetaKeyTelegramTempToken   = "telegram_temp_token"
	MetaKeyTelegramTokenExpiry = "telegram_token_expiry"
)

// Prefs is the typed view over the notification-related meta keys.
// Email notifications default on, Telegram defaults off until a chat is
// linked.
type Prefs struct {
	EmailEnabled    bool   `json:"enabled"`
	TelegramEnabled bool   `json:"telegram_enabled"`
	TelegramChatID  string `json:"telegram_chat_id"`
}

// LinkTokenTTL bounds how long a generated chat-link token stays valid.
const LinkTokenTTL = 300 * time.Second

var (
	ErrNotFound      = errors.New("user not found")
	ErrMetaNotFound  = errors.New("user meta not found")
	ErrTokenNotFound = errors.New("link token not found")
	ErrTokenExpired  = errors.New("link token expired")
)

// Repository is the data access contract for the user directory.
type Repository interface {
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	ListAdmins() ([]*User, error)
	ListMembers() ([]*User, error)
	SearchNonMembers(term string, limit int) ([]*User, error)
	CountMembers() (int64, error)

	GetMeta(userID int64, key string) (string, error)
	SetMeta(userID int64, key, value string) error
	DeleteMeta(userID int64, key string) error
	FindByMeta(key, value string) (*User, error)
}
