package expense

import (
	"errors"
	"math"
	"strings"
)

type CreateExpenseDTO struct {
	Amount          float64 `json:"amount"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	ReceiptURL      *string `json:"receipt_url"`
	ReceiptFileName *string `json:"receipt_filename"`
	ReminderDays    int     `json:"reminder_days"`
}

func (d *CreateExpenseDTO) Validate() error {
	if d.Amount <= 0 {
		return errors.New("amount must be greater than zero")
	}
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		return errors.New("category is required")
	}
	if d.ReminderDays < 0 {
		return errors.New("reminder_days cannot be negative")
	}
	return nil
}

// AmountCents converts the submitted decimal amount to cents, rounding
// half away from zero.
func (d CreateExpenseDTO) AmountCents() int64 {
	return int64(math.Round(d.Amount * 100))
}

type UpdateExpenseDTO struct {
	Status *string `json:"status"`
}

func (d UpdateExpenseDTO) Validate() error {
	if d.Status == nil {
		return errors.New("status is required")
	}
	return nil
}
