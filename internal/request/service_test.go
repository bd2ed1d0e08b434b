package request_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/workflow"
)

// Mock repository for testing
type mockRequestRepository struct {
	requests    map[int64]*request.Request
	notes       map[int64][]*request.Note
	createError error
	updateError error
	nextID      int64
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{
		requests: make(map[int64]*request.Request),
		notes:    make(map[int64][]*request.Note),
		nextID:   1,
	}
}

func (m *mockRequestRepository) Create(req *request.Request) error {
	if m.createError != nil {
		return m.createError
	}
	req.ID = m.nextID
	m.nextID++
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepository) GetByID(id int64) (*request.Request, error) {
	req, exists := m.requests[id]
	if !exists {
		return nil, errors.New("request not found")
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) ListByAuthor(authorID int64) ([]*request.Request, error) {
	var out []*request.Request
	for _, req := range m.requests {
		if req.AuthorID == authorID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *mockRequestRepository) ListAll() ([]*request.Request, error) {
	var out []*request.Request
	for _, req := range m.requests {
		out = append(out, req)
	}
	return out, nil
}

func (m *mockRequestRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	if m.updateError != nil {
		return m.updateError
	}
	req, exists := m.requests[id]
	if !exists {
		return errors.New("request not found")
	}
	if p, ok := fields["priority"].(string); ok {
		req.Priority = p
	}
	return nil
}

func (m *mockRequestRepository) UpdateStatusWhere(id int64, from, to string) (int64, error) {
	if m.updateError != nil {
		return 0, m.updateError
	}
	req, exists := m.requests[id]
	if !exists || req.Status != from {
		return 0, nil
	}
	req.Status = to
	return 1, nil
}

func (m *mockRequestRepository) DueReminders(now time.Time) ([]*request.Request, error) {
	var out []*request.Request
	for _, req := range m.requests {
		if req.Status == workflow.StatusPending && req.ReminderAt != nil && !req.ReminderAt.After(now) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *mockRequestRepository) ClearReminder(id int64) error {
	if req, exists := m.requests[id]; exists {
		req.ReminderAt = nil
	}
	return nil
}

func (m *mockRequestRepository) CountByStatus(status string) (int64, error) {
	var count int64
	for _, req := range m.requests {
		if req.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockRequestRepository) Recent(limit int) ([]*request.Request, error) {
	return m.ListAll()
}

func (m *mockRequestRepository) CreateNote(note *request.Note) error {
	note.ID = m.nextID
	m.nextID++
	note.CreatedAt = time.Now()
	m.notes[note.RequestID] = append(m.notes[note.RequestID], note)
	return nil
}

func (m *mockRequestRepository) NotesByRequestID(requestID int64) ([]*request.Note, error) {
	return m.notes[requestID], nil
}

type mockSettings struct {
	remindersEnabled bool
}

func (m *mockSettings) RemindersEnabled() bool {
	return m.remindersEnabled
}

var _ = Describe("RequestService", func() {
	var (
		service  *request.Service
		mockRepo *mockRequestRepository
		settings *mockSettings
		bus      *events.EventBus
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockRequestRepository()
		settings = &mockSettings{remindersEnabled: true}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(logger)
		service = request.NewService(mockRepo, settings, bus, logger)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("creates a pending request with the given fields", func() {
			dto := request.CreateRequestDTO{
				Title:       "Laptop",
				Description: "need one",
				Priority:    request.PriorityHigh,
			}

			result, err := service.Create(ctx, 42, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(BeNumerically(">", 0))
			Expect(result.AuthorID).To(Equal(int64(42)))
			Expect(result.Status).To(Equal(workflow.StatusPending))
			Expect(result.Priority).To(Equal(request.PriorityHigh))
			Expect(result.ReminderAt).To(BeNil())
		})

		It("defaults the priority to medium", func() {
			result, err := service.Create(ctx, 42, request.CreateRequestDTO{Title: "Chair"})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Priority).To(Equal(request.PriorityMedium))
		})

		It("rejects a missing title", func() {
			_, err := service.Create(ctx, 42, request.CreateRequestDTO{Description: "no title"})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects an unknown priority", func() {
			_, err := service.Create(ctx, 42, request.CreateRequestDTO{Title: "x", Priority: "urgent"})

			Expect(err).To(HaveOccurred())
		})

		Context("with reminder_days set", func() {
			It("schedules the reminder when reminders are enabled", func() {
				result, err := service.Create(ctx, 42, request.CreateRequestDTO{
					Title:        "Laptop",
					ReminderDays: 3,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(result.ReminderAt).ToNot(BeNil())
				expected := time.Now().AddDate(0, 0, 3)
				Expect(result.ReminderAt.Unix()).To(BeNumerically("~", expected.Unix(), 5))
			})

			It("leaves the reminder unset when reminders are globally disabled", func() {
				settings.remindersEnabled = false

				result, err := service.Create(ctx, 42, request.CreateRequestDTO{
					Title:        "Laptop",
					ReminderDays: 3,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(result.ReminderAt).To(BeNil())
			})
		})

		It("publishes a submitted event", func() {
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeRequestSubmitted, func(_ context.Context, e events.Event) error {
				received <- e
				return nil
			})

			_, err := service.Create(ctx, 42, request.CreateRequestDTO{Title: "Laptop"})

			Expect(err).ToNot(HaveOccurred())
			Eventually(received).Should(Receive())
		})
	})

	Describe("Update", func() {
		var existing *request.Request

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, 42, request.CreateRequestDTO{Title: "Laptop"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("fails when neither status nor priority is given", func() {
			_, err := service.Update(ctx, existing.ID, request.UpdateRequestDTO{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNoFieldsToUpdate))
		})

		It("applies a legal status change", func() {
			status := workflow.StatusInProgress
			updated, err := service.Update(ctx, existing.ID, request.UpdateRequestDTO{Status: &status})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(workflow.StatusInProgress))
		})

		It("rejects an illegal status change", func() {
			status := workflow.StatusCompleted
			_, err := service.Update(ctx, existing.ID, request.UpdateRequestDTO{Status: &status})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))

			stored, _ := mockRepo.GetByID(existing.ID)
			Expect(stored.Status).To(Equal(workflow.StatusPending))
		})

		It("updates the priority alone", func() {
			priority := request.PriorityLow
			updated, err := service.Update(ctx, existing.ID, request.UpdateRequestDTO{Priority: &priority})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Priority).To(Equal(request.PriorityLow))
			Expect(updated.Status).To(Equal(workflow.StatusPending))
		})

		It("publishes a status change event exactly once per update", func() {
			received := make(chan events.Event, 2)
			bus.Subscribe(events.EventTypeRequestStatusChanged, func(_ context.Context, e events.Event) error {
				received <- e
				return nil
			})

			status := workflow.StatusInProgress
			_, err := service.Update(ctx, existing.ID, request.UpdateRequestDTO{Status: &status})
			Expect(err).ToNot(HaveOccurred())

			Eventually(received).Should(Receive())
			Consistently(received).ShouldNot(Receive())
		})
	})

	Describe("Transition", func() {
		var existing *request.Request

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, 42, request.CreateRequestDTO{Title: "Laptop"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("applies an approve action once", func() {
			result, applied, err := service.Transition(ctx, existing.ID, workflow.ActionApprove)

			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeTrue())
			Expect(result.Status).To(Equal(workflow.StatusInProgress))
		})

		It("reports a duplicate action as not applied and leaves the status alone", func() {
			_, applied, err := service.Transition(ctx, existing.ID, workflow.ActionApprove)
			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeTrue())

			_, applied, err = service.Transition(ctx, existing.ID, workflow.ActionApprove)
			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeFalse())

			stored, _ := mockRepo.GetByID(existing.ID)
			Expect(stored.Status).To(Equal(workflow.StatusInProgress))
		})

		It("reports an unknown action as not applied", func() {
			_, applied, err := service.Transition(ctx, existing.ID, "escalate")

			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeFalse())
		})

		It("errors for a missing request", func() {
			_, _, err := service.Transition(ctx, 9999, workflow.ActionApprove)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Notes", func() {
		var existing *request.Request
		var author, admin, stranger *auth.User

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, 42, request.CreateRequestDTO{Title: "Laptop"})
			Expect(err).ToNot(HaveOccurred())

			author = &auth.User{ID: 42, IsMember: true}
			admin = &auth.User{ID: 1, IsAdmin: true}
			stranger = &auth.User{ID: 77, IsMember: true}
		})

		It("lets the author add and list notes", func() {
			note, err := service.AddNote(existing.ID, author, request.CreateNoteDTO{Body: "any update?"})
			Expect(err).ToNot(HaveOccurred())
			Expect(note.AuthorID).To(Equal(author.ID))

			notes, err := service.Notes(existing.ID, author)
			Expect(err).ToNot(HaveOccurred())
			Expect(notes).To(HaveLen(1))
		})

		It("lets an admin add notes to any request", func() {
			_, err := service.AddNote(existing.ID, admin, request.CreateNoteDTO{Body: "ordered"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("hides the request from other members", func() {
			_, err := service.AddNote(existing.ID, stranger, request.CreateNoteDTO{Body: "mine too"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRequestNotFound))
		})

		It("rejects an empty note body", func() {
			_, err := service.AddNote(existing.ID, author, request.CreateNoteDTO{Body: "   "})
			Expect(err).To(HaveOccurred())
		})
	})
})
