package telegram

import (
	"encoding/json"
	"net/http"

	"github.com/go-telegram/bot/models"

	"github.com/officeteam/office-utilities/internal/transport"
	"github.com/officeteam/office-utilities/pkg/logger"
)

// WebhookHandler receives Bot API updates. It acknowledges every
// delivery with a 200 regardless of the business outcome, so Telegram
// never retries an update we have already looked at.
type WebhookHandler struct {
	*transport.BaseHandler
	Service *Service
}

func NewWebhookHandler(svc *Service) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.Logger.Error("panic in webhook dispatch", "panic", rec)
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	}()

	var upd models.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.Logger.Warn("undecodable webhook payload", "error", err)
		return
	}

	h.Service.HandleUpdate(r.Context(), &upd)
}
