// Package workflow owns the status state machines for requests and
// expenses. Every status change, whether it comes from the REST API or
// the Telegram callback path, is validated here.
package workflow

import (
	"errors"
	"fmt"
)

type Entity string

const (
	EntityRequest Entity = "request"
	EntityExpense Entity = "expense"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

var (
	ErrUnknownEntity     = errors.New("unknown entity")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Terminal states have no outgoing edges.
var requestTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusRejected},
	StatusCompleted:  {},
	StatusRejected:   {},
}

var expenseTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

func transitions(entity Entity) (map[string][]string, error) {
	switch entity {
	case EntityRequest:
		return requestTransitions, nil
	case EntityExpense:
		return expenseTransitions, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
}

// CanTransition reports whether from -> to is a legal edge for the
// entity. Unknown status names and moves out of a terminal state both
// fail; creation into "pending" is not a transition and never passes
// through here.
func CanTransition(entity Entity, from, to string) error {
	table, err := transitions(entity)
	if err != nil {
		return err
	}

	targets, ok := table[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if _, ok := table[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	for _, target := range targets {
		if target == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q -> %q", ErrInvalidTransition, entity, from, to)
}

func IsTerminal(entity Entity, status string) bool {
	table, err := transitions(entity)
	if err != nil {
		return false
	}
	targets, ok := table[status]
	return ok && len(targets) == 0
}

func ValidStatus(entity Entity, status string) bool {
	table, err := transitions(entity)
	if err != nil {
		return false
	}
	_, ok := table[status]
	return ok
}

// ActionTarget maps an inline-button action to the status it drives the
// entity toward: approve moves a request into in_progress but an expense
// straight to approved; reject is rejected for both.
func ActionTarget(entity Entity, action string) (string, bool) {
	switch action {
	case ActionApprove:
		if entity == EntityRequest {
			return StatusInProgress, true
		}
		if entity == EntityExpense {
			return StatusApproved, true
		}
	case ActionReject:
		if entity == EntityRequest || entity == EntityExpense {
			return StatusRejected, true
		}
	}
	return "", false
}
