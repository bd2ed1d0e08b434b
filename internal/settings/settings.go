package settings

import "errors"

// AppSetting is one row of the site-wide key-value settings store.
type AppSetting struct {
	ID    int64  `gorm:"primaryKey"`
	Key   string `gorm:"column:setting_key;uniqueIndex"`
	Value string `gorm:"column:setting_value"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}

const (
	KeyRemindersEnabled = "reminders_enabled"
	KeyTelegramBotToken = "telegram_bot_token"
)

var ErrNotFound = errors.New("setting not found")

type Repository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
