package settings

import (
	"errors"
	"log/slog"

	"github.com/officeteam/office-utilities/internal"
)

// Service reads site-wide settings at call time so admin changes take
// effect without a restart.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RemindersEnabled defaults to on when the setting has never been
// written.
func (s *Service) RemindersEnabled() bool {
	v, err := s.repo.Get(KeyRemindersEnabled)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to read reminders setting", "error", err)
		}
		return true
	}
	return v != "0"
}

func (s *Service) SetRemindersEnabled(enabled bool) error {
	v := "1"
	if !enabled {
		v = "0"
	}
	if err := s.repo.Set(KeyRemindersEnabled, v); err != nil {
		return internal.NewInternalError("failed to store reminders setting", err)
	}
	return nil
}

func (s *Service) TelegramBotToken() (string, error) {
	v, err := s.repo.Get(KeyTelegramBotToken)
	if err != nil || v == "" {
		return "", internal.ErrNoBotToken
	}
	return v, nil
}

func (s *Service) SetTelegramBotToken(token string) error {
	if err := s.repo.Set(KeyTelegramBotToken, token); err != nil {
		return internal.NewInternalError("failed to store bot token", err)
	}
	return nil
}

// HasBotToken reports whether a bot token is configured without
// exposing its value.
func (s *Service) HasBotToken() bool {
	v, err := s.repo.Get(KeyTelegramBotToken)
	return err == nil && v != ""
}
