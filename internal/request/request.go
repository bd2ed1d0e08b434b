package request

import "time"

// Request is an office request submitted by a team member and worked by
// an admin through the pending/in_progress/completed lifecycle.
type Request struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	AuthorID    int64      `json:"author_id" gorm:"column:author_id;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" gorm:"not null;default:medium"`
	Status      string     `json:"status" gorm:"not null;default:pending;index"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty" gorm:"column:reminder_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Request) TableName() string {
	return "requests"
}

// Note is an append-only comment on a request.
type Note struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	RequestID int64     `json:"request_id" gorm:"column:request_id;not null;index"`
	AuthorID  int64     `json:"author_id" gorm:"column:author_id;not null"`
	Body      string    `json:"body" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Note) TableName() string {
	return "notes"
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Repository is the data access contract for requests and their notes.
type Repository interface {
	Create(req *Request) error
	GetByID(id int64) (*Request, error)
	ListByAuthor(authorID int64) ([]*Request, error)
	ListAll() ([]*Request, error)
	UpdateFields(id int64, fields map[string]interface{}) error

	// UpdateStatusWhere applies the status change only when the row is
	// still in the expected state and reports how many rows matched.
	UpdateStatusWhere(id int64, from, to string) (int64, error)

	DueReminders(now time.Time) ([]*Request, error)
	ClearReminder(id int64) error

	CountByStatus(status string) (int64, error)
	Recent(limit int) ([]*Request, error)

	CreateNote(note *Note) error
	NotesByRequestID(requestID int64) ([]*Note, error)
}
