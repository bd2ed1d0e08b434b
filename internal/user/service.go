package user

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officeteam/office-utilities/internal"
)

// Service is the user directory boundary: roster management, typed
// notification preferences, and the Telegram chat-link token lifecycle.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound.WithCause(err)
	}
	return u, nil
}

func (s *Service) GetByEmail(email string) (*User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, internal.ErrUserNotFound.WithCause(err)
	}
	return u, nil
}

func (s *Service) Admins() ([]*User, error) {
	return s.repo.ListAdmins()
}

func (s *Service) Members() ([]*User, error) {
	return s.repo.ListMembers()
}

func (s *Service) CountMembers() (int64, error) {
	return s.repo.CountMembers()
}

func (s *Service) SearchNonMembers(term string, limit int) ([]*User, error) {
	return s.repo.SearchNonMembers(term, limit)
}

func (s *Service) IsMember(userID int64) bool {
	v, err := s.repo.GetMeta(userID, MetaKeyMember)
	if err != nil {
		return false
	}
	return v == "1"
}

func (s *Service) AddMember(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound.WithCause(err)
	}
	if err := s.repo.SetMeta(userID, MetaKeyMember, "1"); err != nil {
		return nil, internal.NewInternalError("failed to add team member", err)
	}
	s.logger.Info("user added to team", "user_id", userID)
	return u, nil
}

func (s *Service) RemoveMember(userID int64) error {
	if err := s.repo.DeleteMeta(userID, MetaKeyMember); err != nil {
		return internal.NewInternalError("failed to remove team member", err)
	}
	s.logger.Info("user removed from team", "user_id", userID)
	return nil
}

// PrefsFor translates the meta rows into a typed Prefs with defaults:
// email on unless explicitly "0", telegram only on when explicitly "1".
func (s *Service) PrefsFor(userID int64) Prefs {
	prefs := Prefs{EmailEnabled: true}

	if v, err := s.repo.GetMeta(userID, MetaKeyEmailEnabled); err == nil && v == "0" {
		prefs.EmailEnabled = false
	}
	if v, err := s.repo.GetMeta(userID, MetaKeyTelegramEnabled); err == nil && v == "1" {
		prefs.TelegramEnabled = true
	}
	if v, err := s.repo.GetMeta(userID, MetaKeyTelegramChatID); err == nil {
		prefs.TelegramChatID = v
	}
	return prefs
}

func (s *Service) SetEmailEnabled(userID int64, enabled bool) error {
	return s.repo.SetMeta(userID, MetaKeyEmailEnabled, boolMeta(enabled))
}

func (s *Service) SetTelegramEnabled(userID int64, enabled bool) error {
	return s.repo.SetMeta(userID, MetaKeyTelegramEnabled, boolMeta(enabled))
}

func (s *Service) SetTelegramChatID(userID int64, chatID string) error {
	return s.repo.SetMeta(userID, MetaKeyTelegramChatID, chatID)
}

// GenerateLinkToken issues a short-lived code used to associate a chat
// identity with this user. Regenerating overwrites any previous token,
// so at most one is ever active per user.
func (s *Service) GenerateLinkToken(userID int64) (string, error) {
	token := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	expiry := time.Now().Add(LinkTokenTTL).Unix()

	if err := s.repo.SetMeta(userID, MetaKeyTelegramTempToken, token); err != nil {
		return "", internal.NewInternalError("failed to store link token", err)
	}
	if err := s.repo.SetMeta(userID, MetaKeyTelegramTokenExpiry, strconv.FormatInt(expiry, 10)); err != nil {
		return "", internal.NewInternalError("failed to store link token expiry", err)
	}

	s.logger.Info("telegram link token generated", "user_id", userID)
	return token, nil
}

// ConsumeLinkToken resolves a token to its user, enforces the TTL, and
// on success links the chat and deletes the token so a retry of the same
// token falls into the not-found branch.
func (s *Service) ConsumeLinkToken(token string, chatID int64) (*User, error) {
	u, err := s.repo.FindByMeta(MetaKeyTelegramTempToken, token)
	if err != nil {
		return nil, ErrTokenNotFound
	}

	expiryRaw, err := s.repo.GetMeta(u.ID, MetaKeyTelegramTokenExpiry)
	if err != nil {
		return nil, ErrTokenNotFound
	}
	expiry, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return nil, ErrTokenExpired
	}

	if err := s.repo.SetMeta(u.ID, MetaKeyTelegramChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return nil, internal.NewInternalError("failed to store chat id", err)
	}
	if err := s.repo.SetMeta(u.ID, MetaKeyTelegramEnabled, "1"); err != nil {
		return nil, internal.NewInternalError("failed to enable telegram channel", err)
	}
	if err := s.repo.DeleteMeta(u.ID, MetaKeyTelegramTempToken); err != nil {
		s.logger.Error("failed to delete consumed link token", "error", err, "user_id", u.ID)
	}
	if err := s.repo.DeleteMeta(u.ID, MetaKeyTelegramTokenExpiry); err != nil {
		s.logger.Error("failed to delete link token expiry", "error", err, "user_id", u.ID)
	}

	s.logger.Info("telegram account linked", "user_id", u.ID, "chat_id", chatID)
	return u, nil
}

func (s *Service) FindByChatID(chatID int64) (*User, error) {
	u, err := s.repo.FindByMeta(MetaKeyTelegramChatID, strconv.FormatInt(chatID, 10))
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func boolMeta(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
