package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/workflow"
)

type SettingsAPI interface {
	RemindersEnabled() bool
}

type Service struct {
	repo     Repository
	settings SettingsAPI
	bus      *events.EventBus
	currency string
	logger   *slog.Logger
}

func NewService(repo Repository, settings SettingsAPI, bus *events.EventBus, currency string, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		bus:      bus,
		currency: currency,
		logger:   logger,
	}
}

// Create stores a new pending expense claim. The currency always comes
// from configuration, never from the caller.
func (s *Service) Create(ctx context.Context, authorID int64, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	exp := &Expense{
		AuthorID:        authorID,
		AmountCents:     dto.AmountCents(),
		Currency:        s.currency,
		Category:        dto.Category,
		Description:     dto.Description,
		ReceiptURL:      dto.ReceiptURL,
		ReceiptFileName: dto.ReceiptFileName,
		Status:          workflow.StatusPending,
	}
	if dto.ReminderDays > 0 && s.settings.RemindersEnabled() {
		at := time.Now().AddDate(0, 0, dto.ReminderDays)
		exp.ReminderAt = &at
	}

	if err := s.repo.Create(exp); err != nil {
		return nil, internal.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created", "expense_id", exp.ID, "author_id", authorID, "amount_cents", exp.AmountCents)
	s.bus.Publish(ctx, events.NewSubmittedEvent(s.snapshot(exp), authorID))
	return exp, nil
}

func (s *Service) List(actor *auth.User) ([]*Expense, error) {
	if actor.IsAdmin {
		return s.repo.ListAll()
	}
	return s.repo.ListByAuthor(actor.ID)
}

func (s *Service) GetByID(id int64, actor *auth.User) (*Expense, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound.WithCause(err)
	}
	if !actor.IsAdmin && exp.AuthorID != actor.ID {
		return nil, internal.ErrExpenseNotFound
	}
	return exp, nil
}

// Update applies an admin status change through the conditional update
// so only one of two racing approvals wins.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateExpenseDTO) (*Expense, error) {
	if dto.Status == nil {
		return nil, internal.ErrNoFieldsToUpdate
	}

	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound.WithCause(err)
	}

	if err := workflow.CanTransition(workflow.EntityExpense, exp.Status, *dto.Status); err != nil {
		return nil, internal.ErrInvalidTransition.WithCause(err)
	}
	affected, err := s.repo.UpdateStatusWhere(id, exp.Status, *dto.Status)
	if err != nil {
		return nil, internal.NewInternalError("failed to update expense status", err)
	}
	if affected == 0 {
		return nil, internal.ErrAlreadyProcessed
	}

	exp.Status = *dto.Status
	s.logger.Info("expense status changed", "expense_id", id, "status", exp.Status)
	s.bus.Publish(ctx, events.NewStatusChangedEvent(s.snapshot(exp)))
	return exp, nil
}

// Transition drives the expense by an inline-button action; see the
// request service for the applied-flag semantics.
func (s *Service) Transition(ctx context.Context, id int64, action string) (*Expense, bool, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, false, internal.ErrExpenseNotFound.WithCause(err)
	}

	target, ok := workflow.ActionTarget(workflow.EntityExpense, action)
	if !ok {
		return exp, false, nil
	}
	if err := workflow.CanTransition(workflow.EntityExpense, exp.Status, target); err != nil {
		return exp, false, nil
	}

	affected, err := s.repo.UpdateStatusWhere(id, exp.Status, target)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to update expense status", err)
	}
	if affected == 0 {
		return exp, false, nil
	}

	exp.Status = target
	s.logger.Info("expense transitioned via callback", "expense_id", id, "action", action, "status", target)
	s.bus.Publish(ctx, events.NewStatusChangedEvent(s.snapshot(exp)))
	return exp, true, nil
}

func (s *Service) DueReminders(now time.Time) ([]*Expense, error) {
	return s.repo.DueReminders(now)
}

func (s *Service) ClearReminder(id int64) error {
	return s.repo.ClearReminder(id)
}

func (s *Service) PendingCount() (int64, error) {
	return s.repo.CountByStatus(workflow.StatusPending)
}

func (s *Service) ApprovedTotal() (int64, error) {
	return s.repo.SumAmountByStatus(workflow.StatusApproved)
}

func (s *Service) Recent(limit int) ([]*Expense, error) {
	return s.repo.Recent(limit)
}

func (s *Service) snapshot(exp *Expense) events.SubjectSnapshot {
	return events.SubjectSnapshot{
		SubjectType: events.SubjectExpense,
		SubjectID:   exp.ID,
		AuthorID:    exp.AuthorID,
		Amount:      FormatAmount(exp.AmountCents),
		Currency:    exp.Currency,
		Category:    exp.Category,
		Description: exp.Description,
		Status:      exp.Status,
		CreatedAt:   exp.CreatedAt,
	}
}
