package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/workflow"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(exp *expense.Expense) error {
	return r.db.Create(exp).Error
}

func (r *Repository) GetByID(id int64) (*expense.Expense, error) {
	var exp expense.Expense
	if err := r.db.First(&exp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("expense not found")
		}
		return nil, err
	}
	return &exp, nil
}

func (r *Repository) ListByAuthor(authorID int64) ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *Repository) ListAll() ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.Order("created_at DESC").Find(&expenses).Error
	return expenses, err
}

func (r *Repository) UpdateStatusWhere(id int64, from, to string) (int64, error) {
	result := r.db.Model(&expense.Expense{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *Repository) DueReminders(now time.Time) ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.
		Where("status = ? AND reminder_at IS NOT NULL AND reminder_at <= ?", workflow.StatusPending, now).
		Order("reminder_at ASC").
		Find(&expenses).Error
	return expenses, err
}

func (r *Repository) ClearReminder(id int64) error {
	return r.db.Model(&expense.Expense{}).
		Where("id = ?", id).
		Update("reminder_at", nil).Error
}

func (r *Repository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&expense.Expense{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *Repository) SumAmountByStatus(status string) (int64, error) {
	var total *int64
	err := r.db.Model(&expense.Expense{}).
		Select("SUM(amount_cents)").
		Where("status = ?", status).
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *Repository) Recent(limit int) ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.Order("created_at DESC").Limit(limit).Find(&expenses).Error
	return expenses, err
}
