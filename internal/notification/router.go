package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/user"
	"github.com/officeteam/office-utilities/internal/workflow"
)

// Mailer delivers a rendered email. Implemented over SMTP in
// internal/mailer.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Button is an inline chat action attached to a message.
type Button struct {
	Text string
	Data string
}

// ChatSender delivers a chat message, optionally with inline buttons.
type ChatSender interface {
	Send(ctx context.Context, chatID int64, text string, buttons []Button) error
}

// Directory is the slice of the user service the router needs to
// resolve recipients and their channel preferences.
type Directory interface {
	Admins() ([]*user.User, error)
	GetByID(id int64) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
	PrefsFor(userID int64) user.Prefs
}

// Router fans a domain event out to every relevant recipient over every
// channel they have enabled. Each channel attempt is independent and
// best-effort: a failed send is logged and never fails the operation
// that triggered it.
type Router struct {
	mailer       Mailer
	chat         ChatSender
	users        Directory
	dashboardURL string
	adminEmail   string
	logger       *slog.Logger
}

func NewRouter(mailer Mailer, chat ChatSender, users Directory, dashboardURL, adminEmail string, logger *slog.Logger) *Router {
	return &Router{
		mailer:       mailer,
		chat:         chat,
		users:        users,
		dashboardURL: dashboardURL,
		adminEmail:   adminEmail,
		logger:       logger,
	}
}

// Register wires the router onto the in-process event bus.
func (r *Router) Register(bus *events.EventBus) {
	submitted := func(ctx context.Context, e events.Event) error {
		ev, ok := e.(*events.SubmittedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", e.EventType())
		}
		r.NotifySubmission(ctx, ev.Subject)
		return nil
	}
	statusChanged := func(ctx context.Context, e events.Event) error {
		ev, ok := e.(*events.StatusChangedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", e.EventType())
		}
		r.NotifyStatusChange(ctx, ev.Subject)
		return nil
	}

	bus.Subscribe(events.EventTypeRequestSubmitted, submitted)
	bus.Subscribe(events.EventTypeExpenseSubmitted, submitted)
	bus.Subscribe(events.EventTypeRequestStatusChanged, statusChanged)
	bus.Subscribe(events.EventTypeExpenseStatusChanged, statusChanged)
}

// NotifySubmission alerts every admin about a new submission. Chat
// messages carry approve/reject buttons so the decision can be taken
// in place.
func (r *Router) NotifySubmission(ctx context.Context, subject events.SubjectSnapshot) {
	admins, err := r.users.Admins()
	if err != nil {
		r.logger.Error("failed to resolve admin recipients", "error", err)
		return
	}

	authorName := r.authorName(subject.AuthorID)
	msg := renderSubmission(subject, authorName, r.dashboardURL)
	buttons := actionButtons(subject)

	for _, admin := range admins {
		r.deliver(ctx, admin.ID, admin.Email, msg, buttons)
	}
}

// NotifyStatusChange alerts the author of the subject that its status
// moved. No buttons: the decision is already taken.
func (r *Router) NotifyStatusChange(ctx context.Context, subject events.SubjectSnapshot) {
	owner, err := r.users.GetByID(subject.AuthorID)
	if err != nil {
		r.logger.Error("failed to resolve author for status change",
			"author_id", subject.AuthorID, "error", err)
		return
	}

	msg := renderStatusChange(subject, r.dashboardURL)
	r.deliver(ctx, owner.ID, owner.Email, msg, nil)
}

// NotifyReminder nudges the designated admin about a submission still
// pending past its reminder date, with the action buttons attached
// again on chat. The recipient is the user behind the configured admin
// address; their channel preferences apply as usual.
func (r *Router) NotifyReminder(ctx context.Context, subject events.SubjectSnapshot) {
	if r.adminEmail == "" {
		r.logger.Warn("no reminder recipient configured")
		return
	}
	admin, err := r.users.GetByEmail(r.adminEmail)
	if err != nil {
		r.logger.Error("failed to resolve reminder recipient", "email", r.adminEmail, "error", err)
		return
	}

	authorName := r.authorName(subject.AuthorID)
	msg := renderReminder(subject, authorName, r.dashboardURL)

	r.deliver(ctx, admin.ID, admin.Email, msg, actionButtons(subject))
}

// deliver sends over each channel the recipient has enabled. One
// attempt per channel; failures are independent.
func (r *Router) deliver(ctx context.Context, userID int64, email string, msg Message, buttons []Button) {
	prefs := r.users.PrefsFor(userID)

	if prefs.EmailEnabled {
		if err := r.mailer.Send(email, msg.Subject, msg.HTML); err != nil {
			r.logger.Error("email notification failed", "to", email, "error", err)
		}
	}
	r.sendChat(ctx, userID, prefs, msg.Chat, buttons)
}

func (r *Router) sendChat(ctx context.Context, userID int64, prefs user.Prefs, text string, buttons []Button) {
	if !prefs.TelegramEnabled || prefs.TelegramChatID == "" {
		return
	}
	chatID, err := strconv.ParseInt(prefs.TelegramChatID, 10, 64)
	if err != nil {
		r.logger.Error("malformed chat id in user meta", "user_id", userID, "value", prefs.TelegramChatID)
		return
	}
	if err := r.chat.Send(ctx, chatID, text, buttons); err != nil {
		r.logger.Error("chat notification failed", "user_id", userID, "chat_id", chatID, "error", err)
	}
}

func (r *Router) authorName(authorID int64) string {
	author, err := r.users.GetByID(authorID)
	if err != nil {
		return "Unknown"
	}
	return author.Name
}

// actionButtons builds the approve/reject pair with callback data in
// the action:subjectType:id form the webhook dispatcher parses.
func actionButtons(subject events.SubjectSnapshot) []Button {
	data := func(action string) string {
		return fmt.Sprintf("%s:%s:%d", action, subject.SubjectType, subject.SubjectID)
	}
	return []Button{
		{Text: "Approve", Data: data(workflow.ActionApprove)},
		{Text: "Reject", Data: data(workflow.ActionReject)},
	}
}
