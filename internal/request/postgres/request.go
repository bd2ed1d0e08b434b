package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/workflow"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(req *request.Request) error {
	return r.db.Create(req).Error
}

func (r *Repository) GetByID(id int64) (*request.Request, error) {
	var req request.Request
	if err := r.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("request not found")
		}
		return nil, err
	}
	return &req, nil
}

func (r *Repository) ListByAuthor(authorID int64) ([]*request.Request, error) {
	var requests []*request.Request
	err := r.db.
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *Repository) ListAll() ([]*request.Request, error) {
	var requests []*request.Request
	err := r.db.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *Repository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&request.Request{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateStatusWhere only matches when the row still holds the expected
// status, so a duplicate delivery of the same action updates nothing.
func (r *Repository) UpdateStatusWhere(id int64, from, to string) (int64, error) {
	result := r.db.Model(&request.Request{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *Repository) DueReminders(now time.Time) ([]*request.Request, error) {
	var requests []*request.Request
	err := r.db.
		Where("status = ? AND reminder_at IS NOT NULL AND reminder_at <= ?", workflow.StatusPending, now).
		Order("reminder_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *Repository) ClearReminder(id int64) error {
	return r.db.Model(&request.Request{}).
		Where("id = ?", id).
		Update("reminder_at", nil).Error
}

func (r *Repository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&request.Request{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *Repository) Recent(limit int) ([]*request.Request, error) {
	var requests []*request.Request
	err := r.db.Order("created_at DESC").Limit(limit).Find(&requests).Error
	return requests, err
}

func (r *Repository) CreateNote(note *request.Note) error {
	return r.db.Create(note).Error
}

func (r *Repository) NotesByRequestID(requestID int64) ([]*request.Note, error) {
	var notes []*request.Note
	err := r.db.
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}
