// Package reminder sweeps pending submissions whose reminder date has
// passed and renotifies the admins. The sweep is driven externally,
// typically by cron invoking the remind command.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/request"
)

type Notifier interface {
	NotifyReminder(ctx context.Context, subject events.SubjectSnapshot)
}

type Settings interface {
	RemindersEnabled() bool
}

type Scheduler struct {
	requests *request.Service
	expenses *expense.Service
	notifier Notifier
	settings Settings
	logger   *slog.Logger
}

func NewScheduler(requests *request.Service, expenses *expense.Service, notifier Notifier, settings Settings, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		requests: requests,
		expenses: expenses,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// Sweep notifies for every due pending row and clears its reminder so
// the next run skips it. Notify and clear are two steps, so a crash in
// between can deliver the same reminder twice; that beats losing it.
func (s *Scheduler) Sweep(ctx context.Context) error {
	if !s.settings.RemindersEnabled() {
		s.logger.Info("reminders disabled, skipping sweep")
		return nil
	}
	now := time.Now()

	dueRequests, err := s.requests.DueReminders(now)
	if err != nil {
		return err
	}
	for _, req := range dueRequests {
		s.notifier.NotifyReminder(ctx, events.SubjectSnapshot{
			SubjectType: events.SubjectRequest,
			SubjectID:   req.ID,
			AuthorID:    req.AuthorID,
			Title:       req.Title,
			Priority:    req.Priority,
			Description: req.Description,
			Status:      req.Status,
			CreatedAt:   req.CreatedAt,
		})
		if err := s.requests.ClearReminder(req.ID); err != nil {
			s.logger.Error("failed to clear request reminder", "request_id", req.ID, "error", err)
		}
	}

	dueExpenses, err := s.expenses.DueReminders(now)
	if err != nil {
		return err
	}
	for _, exp := range dueExpenses {
		s.notifier.NotifyReminder(ctx, events.SubjectSnapshot{
			SubjectType: events.SubjectExpense,
			SubjectID:   exp.ID,
			AuthorID:    exp.AuthorID,
			Amount:      expense.FormatAmount(exp.AmountCents),
			Currency:    exp.Currency,
			Category:    exp.Category,
			Description: exp.Description,
			Status:      exp.Status,
			CreatedAt:   exp.CreatedAt,
		})
		if err := s.expenses.ClearReminder(exp.ID); err != nil {
			s.logger.Error("failed to clear expense reminder", "expense_id", exp.ID, "error", err)
		}
	}

	s.logger.Info("reminder sweep finished",
		"due_requests", len(dueRequests),
		"due_expenses", len(dueExpenses))
	return nil
}
