package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/user"
	"github.com/officeteam/office-utilities/internal/workflow"
)

const (
	replyInstructions = "To link your account, open the notification settings in the dashboard, generate a link code, and send it here as /start CODE."
	replyLinked       = "Your Telegram account is now linked. You will receive notifications here."
	replyExpired      = "That link code has expired. Generate a new one from the dashboard."
	replyInvalid      = "Invalid link code. Generate a new one from the dashboard."
	replyUnauthorized = "Unauthorized"
	replyFailed       = "Failed or already processed"
	replyProcessed    = "Processed successfully"
)

// RequestFlow and ExpenseFlow are the slices of the record services
// the callback dispatcher drives.
type RequestFlow interface {
	Transition(ctx context.Context, id int64, action string) (*request.Request, bool, error)
}

type ExpenseFlow interface {
	Transition(ctx context.Context, id int64, action string) (*expense.Expense, bool, error)
}

// Service dispatches inbound webhook updates: account linking over
// /start and approval decisions over callback queries.
type Service struct {
	client   *Client
	users    *user.Service
	requests RequestFlow
	expenses ExpenseFlow
	logger   *slog.Logger
}

func NewService(client *Client, users *user.Service, requests RequestFlow, expenses ExpenseFlow, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		users:    users,
		requests: requests,
		expenses: expenses,
		logger:   logger,
	}
}

// HandleUpdate routes one webhook update. Every branch is terminal:
// errors are logged and answered in-chat, never returned, since the
// webhook must always acknowledge with a 200.
func (s *Service) HandleUpdate(ctx context.Context, upd *models.Update) {
	switch {
	case upd.CallbackQuery != nil:
		s.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		s.handleMessage(ctx, upd.Message)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *models.Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/start") {
		return
	}
	chatID := msg.Chat.ID

	fields := strings.Fields(text)
	if len(fields) < 2 {
		s.reply(ctx, chatID, replyInstructions)
		return
	}

	token := strings.ToUpper(fields[1])
	linked, err := s.users.ConsumeLinkToken(token, chatID)
	switch {
	case errors.Is(err, user.ErrTokenExpired):
		s.reply(ctx, chatID, replyExpired)
	case err != nil:
		s.reply(ctx, chatID, replyInvalid)
	default:
		s.logger.Info("chat linked via /start", "user_id", linked.ID, "chat_id", chatID)
		s.reply(ctx, chatID, fmt.Sprintf("Hi %s! %s", linked.Name, replyLinked))
	}
}

// handleCallback applies an approve/reject button press. The callback
// data has the form action:subjectType:id; anything else is silently
// acknowledged so stale or foreign buttons stay inert.
func (s *Service) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		s.ack(ctx, cb.ID, "")
		return
	}
	action, subjectType := parts[0], parts[1]
	subjectID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		s.ack(ctx, cb.ID, "")
		return
	}
	if action != workflow.ActionApprove && action != workflow.ActionReject {
		s.ack(ctx, cb.ID, "")
		return
	}

	// Linking stored the chat id, which equals From.ID only in private
	// chats. Resolve by the chat the button lives in when we have it.
	chatID := cb.From.ID
	if msg := cb.Message.Message; msg != nil {
		chatID = msg.Chat.ID
	}
	actor := s.actorForChat(chatID)
	if !auth.Can(actor, auth.ActionReview) {
		s.ack(ctx, cb.ID, replyUnauthorized)
		return
	}

	var applied bool
	var confirmation string
	switch subjectType {
	case "request":
		req, ok, terr := s.requests.Transition(ctx, subjectID, action)
		if terr != nil {
			s.logger.Warn("request callback failed", "request_id", subjectID, "error", terr)
		}
		applied = ok
		if ok {
			confirmation = fmt.Sprintf("Request #%d is now %s (by %s)", req.ID, req.Status, actor.Name)
		}
	case "expense":
		exp, ok, terr := s.expenses.Transition(ctx, subjectID, action)
		if terr != nil {
			s.logger.Warn("expense callback failed", "expense_id", subjectID, "error", terr)
		}
		applied = ok
		if ok {
			confirmation = fmt.Sprintf("Expense #%d is now %s (by %s)", exp.ID, exp.Status, actor.Name)
		}
	default:
		s.ack(ctx, cb.ID, "")
		return
	}

	if !applied {
		s.ack(ctx, cb.ID, replyFailed)
		return
	}

	if msg := cb.Message.Message; msg != nil {
		if err := s.client.EditMessageText(ctx, msg.Chat.ID, msg.ID, confirmation); err != nil {
			s.logger.Warn("failed to edit callback message", "error", err)
		}
	}
	s.ack(ctx, cb.ID, replyProcessed)
}

// actorForChat resolves the pressing user by linked chat id. A nil
// return means unlinked, which the capability check rejects.
func (s *Service) actorForChat(chatID int64) *auth.User {
	u, err := s.users.FindByChatID(chatID)
	if err != nil {
		return nil
	}
	return &auth.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsMember: s.users.IsMember(u.ID),
	}
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.client.Send(ctx, chatID, text, nil); err != nil {
		s.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

func (s *Service) ack(ctx context.Context, callbackID, text string) {
	if err := s.client.AnswerCallback(ctx, callbackID, text); err != nil {
		s.logger.Error("failed to answer callback", "callback_id", callbackID, "error", err)
	}
}
