package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/transport"
	"github.com/officeteam/office-utilities/internal/user"
	"github.com/officeteam/office-utilities/pkg/logger"
)

// WebhookChecker reports the chat gateway's registered webhook URL, for
// the admin connectivity test.
type WebhookChecker interface {
	WebhookInfo(ctx context.Context) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Settings *Service
	Users    *user.Service
	Webhook  WebhookChecker
}

func NewHandler(settings *Service, users *user.Service, webhook WebhookChecker) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Settings:    settings,
		Users:       users,
		Webhook:     webhook,
	}
}

type notificationSettingsResponse struct {
	Enabled          bool   `json:"enabled"`
	TelegramEnabled  bool   `json:"telegram_enabled"`
	TelegramLinked   bool   `json:"telegram_linked"`
	RemindersEnabled *bool  `json:"reminders_enabled,omitempty"`
	BotTokenSet      *bool  `json:"bot_token_set,omitempty"`
	TelegramToken    string `json:"telegram_token,omitempty"`
}

type updateSettingsDTO struct {
	Enabled               *bool   `json:"enabled"`
	TelegramEnabled       *bool   `json:"telegram_enabled"`
	GenerateTelegramToken bool    `json:"generate_telegram_token"`
	RemindersEnabled      *bool   `json:"reminders_enabled"`
	TelegramBotToken      *string `json:"telegram_bot_token"`
}

// GetNotificationSettings returns the caller's channel preferences.
// Admins additionally see the site-wide reminder and bot token state.
func (h *Handler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	prefs := h.Users.PrefsFor(actor.ID)
	resp := notificationSettingsResponse{
		Enabled:         prefs.EmailEnabled,
		TelegramEnabled: prefs.TelegramEnabled,
		TelegramLinked:  prefs.TelegramChatID != "",
	}
	if actor.IsAdmin {
		reminders := h.Settings.RemindersEnabled()
		tokenSet := h.Settings.HasBotToken()
		resp.RemindersEnabled = &reminders
		resp.BotTokenSet = &tokenSet
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateNotificationSettings applies per-user preference changes and,
// for admins, the site-wide reminder toggle and bot token.
func (h *Handler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto updateSettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if dto.Enabled != nil {
		if err := h.Users.SetEmailEnabled(actor.ID, *dto.Enabled); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}
	if dto.TelegramEnabled != nil {
		if err := h.Users.SetTelegramEnabled(actor.ID, *dto.TelegramEnabled); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}

	if dto.RemindersEnabled != nil || dto.TelegramBotToken != nil {
		if !actor.IsAdmin {
			h.HandleServiceError(w, internal.ErrAdminOnly)
			return
		}
		if dto.RemindersEnabled != nil {
			if err := h.Settings.SetRemindersEnabled(*dto.RemindersEnabled); err != nil {
				h.HandleServiceError(w, err)
				return
			}
		}
		if dto.TelegramBotToken != nil {
			if err := h.Settings.SetTelegramBotToken(*dto.TelegramBotToken); err != nil {
				h.HandleServiceError(w, err)
				return
			}
		}
	}

	var linkToken string
	if dto.GenerateTelegramToken {
		token, err := h.Users.GenerateLinkToken(actor.ID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		linkToken = token
	}

	prefs := h.Users.PrefsFor(actor.ID)
	resp := notificationSettingsResponse{
		Enabled:         prefs.EmailEnabled,
		TelegramEnabled: prefs.TelegramEnabled,
		TelegramLinked:  prefs.TelegramChatID != "",
		TelegramToken:   linkToken,
	}
	if actor.IsAdmin {
		reminders := h.Settings.RemindersEnabled()
		tokenSet := h.Settings.HasBotToken()
		resp.RemindersEnabled = &reminders
		resp.BotTokenSet = &tokenSet
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// TestWebhook asks the chat gateway for its registered webhook so an
// admin can confirm the bot token works end to end.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	url, err := h.Webhook.WebhookInfo(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"webhook_url": url,
	})
}
