package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestSubmitted     = "request.submitted"
	EventTypeExpenseSubmitted     = "expense.submitted"
	EventTypeRequestStatusChanged = "request.status_changed"
	EventTypeExpenseStatusChanged = "expense.status_changed"
)

const (
	SubjectRequest = "request"
	SubjectExpense = "expense"
)

// SubjectSnapshot captures the fields a notification needs at fire time,
// so a later mutation of the row cannot race with message rendering.
type SubjectSnapshot struct {
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	AuthorID    int64     `json:"author_id"`
	Title       string    `json:"title,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmittedEvent struct {
	BaseEvent
	Subject SubjectSnapshot `json:"subject"`
	ActorID int64           `json:"actor_id"`
}

func NewSubmittedEvent(subject SubjectSnapshot, actorID int64) *SubmittedEvent {
	eventType := EventTypeRequestSubmitted
	if subject.SubjectType == SubjectExpense {
		eventType = EventTypeExpenseSubmitted
	}
	return &SubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"subject_type": subject.SubjectType,
				"subject_id":   subject.SubjectID,
				"actor_id":     actorID,
			},
		},
		Subject: subject,
		ActorID: actorID,
	}
}

type StatusChangedEvent struct {
	BaseEvent
	Subject SubjectSnapshot `json:"subject"`
}

func NewStatusChangedEvent(subject SubjectSnapshot) *StatusChangedEvent {
	eventType := EventTypeRequestStatusChanged
	if subject.SubjectType == SubjectExpense {
		eventType = EventTypeExpenseStatusChanged
	}
	return &StatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"subject_type": subject.SubjectType,
				"subject_id":   subject.SubjectID,
				"status":       subject.Status,
			},
		},
		Subject: subject,
	}
}
