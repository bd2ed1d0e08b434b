package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/workflow"
)

// SettingsAPI is the slice of the settings service the request flow
// needs.
type SettingsAPI interface {
	RemindersEnabled() bool
}

type Service struct {
	repo     Repository
	settings SettingsAPI
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, settings SettingsAPI, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		bus:      bus,
		logger:   logger,
	}
}

// Create stores a new pending request. The reminder timestamp is only
// set when reminders are globally enabled at submission time.
func (s *Service) Create(ctx context.Context, authorID int64, dto CreateRequestDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	req := &Request{
		AuthorID:    authorID,
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    dto.Priority,
		Status:      workflow.StatusPending,
	}
	if dto.ReminderDays > 0 && s.settings.RemindersEnabled() {
		at := time.Now().AddDate(0, 0, dto.ReminderDays)
		req.ReminderAt = &at
	}

	if err := s.repo.Create(req); err != nil {
		return nil, internal.NewInternalError("failed to create request", err)
	}

	s.logger.Info("request created", "request_id", req.ID, "author_id", authorID, "priority", req.Priority)
	s.bus.Publish(ctx, events.NewSubmittedEvent(s.snapshot(req), authorID))
	return req, nil
}

// List returns the actor's own requests, or every request for admins.
func (s *Service) List(actor *auth.User) ([]*Request, error) {
	if actor.IsAdmin {
		return s.repo.ListAll()
	}
	return s.repo.ListByAuthor(actor.ID)
}

func (s *Service) GetByID(id int64, actor *auth.User) (*Request, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrRequestNotFound.WithCause(err)
	}
	if !actor.IsAdmin && req.AuthorID != actor.ID {
		return nil, internal.ErrRequestNotFound
	}
	return req, nil
}

// Update applies an admin status and/or priority change. The status
// change is conditional on the loaded status so a concurrent update of
// the same row surfaces as a conflict instead of silently winning.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateRequestDTO) (*Request, error) {
	if dto.Status == nil && dto.Priority == nil {
		return nil, internal.ErrNoFieldsToUpdate
	}
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrRequestNotFound.WithCause(err)
	}

	if dto.Status != nil {
		if err := workflow.CanTransition(workflow.EntityRequest, req.Status, *dto.Status); err != nil {
			return nil, internal.ErrInvalidTransition.WithCause(err)
		}
		affected, err := s.repo.UpdateStatusWhere(id, req.Status, *dto.Status)
		if err != nil {
			return nil, internal.NewInternalError("failed to update request status", err)
		}
		if affected == 0 {
			return nil, internal.ErrAlreadyProcessed
		}
	}

	if dto.Priority != nil {
		if err := s.repo.UpdateFields(id, map[string]interface{}{"priority": *dto.Priority}); err != nil {
			return nil, internal.NewInternalError("failed to update request priority", err)
		}
	}

	updated, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrRequestNotFound.WithCause(err)
	}

	if dto.Status != nil {
		s.logger.Info("request status changed", "request_id", id, "from", req.Status, "to", updated.Status)
		s.bus.Publish(ctx, events.NewStatusChangedEvent(s.snapshot(updated)))
	}
	return updated, nil
}

// Transition drives the request by an inline-button action. The bool
// reports whether the change was applied; an invalid or already-taken
// transition comes back false with no error, since the callback path
// treats both the same way.
func (s *Service) Transition(ctx context.Context, id int64, action string) (*Request, bool, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, false, internal.ErrRequestNotFound.WithCause(err)
	}

	target, ok := workflow.ActionTarget(workflow.EntityRequest, action)
	if !ok {
		return req, false, nil
	}
	if err := workflow.CanTransition(workflow.EntityRequest, req.Status, target); err != nil {
		return req, false, nil
	}

	affected, err := s.repo.UpdateStatusWhere(id, req.Status, target)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to update request status", err)
	}
	if affected == 0 {
		return req, false, nil
	}

	req.Status = target
	s.logger.Info("request transitioned via callback", "request_id", id, "action", action, "status", target)
	s.bus.Publish(ctx, events.NewStatusChangedEvent(s.snapshot(req)))
	return req, true, nil
}

func (s *Service) AddNote(requestID int64, actor *auth.User, dto CreateNoteDTO) (*Note, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}
	if _, err := s.GetByID(requestID, actor); err != nil {
		return nil, err
	}

	note := &Note{
		RequestID: requestID,
		AuthorID:  actor.ID,
		Body:      dto.Body,
	}
	if err := s.repo.CreateNote(note); err != nil {
		return nil, internal.NewInternalError("failed to create note", err)
	}
	return note, nil
}

func (s *Service) Notes(requestID int64, actor *auth.User) ([]*Note, error) {
	if _, err := s.GetByID(requestID, actor); err != nil {
		return nil, err
	}
	return s.repo.NotesByRequestID(requestID)
}

func (s *Service) DueReminders(now time.Time) ([]*Request, error) {
	return s.repo.DueReminders(now)
}

func (s *Service) ClearReminder(id int64) error {
	return s.repo.ClearReminder(id)
}

func (s *Service) PendingCount() (int64, error) {
	return s.repo.CountByStatus(workflow.StatusPending)
}

func (s *Service) Recent(limit int) ([]*Request, error) {
	return s.repo.Recent(limit)
}

func (s *Service) snapshot(req *Request) events.SubjectSnapshot {
	return events.SubjectSnapshot{
		SubjectType: events.SubjectRequest,
		SubjectID:   req.ID,
		AuthorID:    req.AuthorID,
		Title:       req.Title,
		Priority:    req.Priority,
		Description: req.Description,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
	}
}
