package request

import (
	"errors"
	"strings"
)

type CreateRequestDTO struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	ReminderDays int    `json:"reminder_days"`
}

func (d *CreateRequestDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return errors.New("title is required")
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !ValidPriority(d.Priority) {
		return errors.New("priority must be one of: low, medium, high")
	}
	if d.ReminderDays < 0 {
		return errors.New("reminder_days cannot be negative")
	}
	return nil
}

// UpdateRequestDTO carries an admin update. Status and priority are
// independent; at least one must be present.
type UpdateRequestDTO struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

func (d UpdateRequestDTO) Validate() error {
	if d.Priority != nil && !ValidPriority(*d.Priority) {
		return errors.New("priority must be one of: low, medium, high")
	}
	return nil
}

type CreateNoteDTO struct {
	Body string `json:"body"`
}

func (d *CreateNoteDTO) Validate() error {
	d.Body = strings.TrimSpace(d.Body)
	if d.Body == "" {
		return errors.New("body is required")
	}
	return nil
}
