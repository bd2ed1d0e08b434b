package expense

import (
	"fmt"
	"time"
)

// Expense is an expense claim. Amounts are stored in cents to keep
// arithmetic exact; the currency is fixed per deployment.
type Expense struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	AuthorID        int64      `json:"author_id" gorm:"column:author_id;not null;index"`
	AmountCents     int64      `json:"amount_cents" gorm:"column:amount_cents;not null"`
	Currency        string     `json:"currency" gorm:"not null"`
	Category        string     `json:"category" gorm:"not null"`
	Description     string     `json:"description"`
	ReceiptURL      *string    `json:"receipt_url,omitempty" gorm:"column:receipt_url"`
	ReceiptFileName *string    `json:"receipt_filename,omitempty" gorm:"column:receipt_filename"`
	Status          string     `json:"status" gorm:"not null;default:pending;index"`
	ReminderAt      *time.Time `json:"reminder_at,omitempty" gorm:"column:reminder_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Expense) TableName() string {
	return "expenses"
}

// FormatAmount renders cents as a two-decimal string for display.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

type Repository interface {
	Create(exp *Expense) error
	GetByID(id int64) (*Expense, error)
	ListByAuthor(authorID int64) ([]*Expense, error)
	ListAll() ([]*Expense, error)

	// UpdateStatusWhere applies the status change only when the row is
	// still in the expected state and reports how many rows matched.
	UpdateStatusWhere(id int64, from, to string) (int64, error)

	DueReminders(now time.Time) ([]*Expense, error)
	ClearReminder(id int64) error

	CountByStatus(status string) (int64, error)
	SumAmountByStatus(status string) (int64, error)
	Recent(limit int) ([]*Expense, error)
}
