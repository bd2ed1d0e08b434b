// Package dashboard aggregates the admin overview numbers.
package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/transport"
	"github.com/officeteam/office-utilities/internal/user"
	"github.com/officeteam/office-utilities/pkg/logger"
)

const recentLimit = 5

type Stats struct {
	TeamMembers     int64              `json:"team_members"`
	PendingRequests int64              `json:"pending_requests"`
	PendingExpenses int64              `json:"pending_expenses"`
	ApprovedTotal   string             `json:"approved_total"`
	Currency        string             `json:"currency"`
	RecentRequests  []*request.Request `json:"recent_requests"`
	RecentExpenses  []*expense.Expense `json:"recent_expenses"`
}

type Service struct {
	users    *user.Service
	requests *request.Service
	expenses *expense.Service
	currency string
	logger   *slog.Logger
}

func NewService(users *user.Service, requests *request.Service, expenses *expense.Service, currency string, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		requests: requests,
		expenses: expenses,
		currency: currency,
		logger:   logger,
	}
}

func (s *Service) Stats() (*Stats, error) {
	members, err := s.users.CountMembers()
	if err != nil {
		return nil, err
	}
	pendingRequests, err := s.requests.PendingCount()
	if err != nil {
		return nil, err
	}
	pendingExpenses, err := s.expenses.PendingCount()
	if err != nil {
		return nil, err
	}
	approvedTotal, err := s.expenses.ApprovedTotal()
	if err != nil {
		return nil, err
	}
	recentRequests, err := s.requests.Recent(recentLimit)
	if err != nil {
		return nil, err
	}
	recentExpenses, err := s.expenses.Recent(recentLimit)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TeamMembers:     members,
		PendingRequests: pendingRequests,
		PendingExpenses: pendingExpenses,
		ApprovedTotal:   expense.FormatAmount(approvedTotal),
		Currency:        s.currency,
		RecentRequests:  recentRequests,
		RecentExpenses:  recentExpenses,
	}, nil
}

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		h.Logger.Error("failed to build dashboard stats", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}
