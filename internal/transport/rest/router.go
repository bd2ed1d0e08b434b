package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"

	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/dashboard"
	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/settings"
	"github.com/officeteam/office-utilities/internal/telegram"
	"github.com/officeteam/office-utilities/internal/transport/middleware"
	"github.com/officeteam/office-utilities/internal/user"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Auth      *auth.Handler
	Requests  *request.Handler
	Expenses  *expense.Handler
	Users     *user.Handler
	Settings  *settings.Handler
	Dashboard *dashboard.Handler
	Webhook   *telegram.WebhookHandler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public: the chat provider cannot authenticate with us.
		r.Post("/telegram/webhook", h.Webhook.Receive)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/requests", func(rr chi.Router) {
				rr.Get("/", h.Requests.List)
				rr.Get("/{id}", h.Requests.Get)
				rr.Get("/{id}/notes", h.Requests.ListNotes)
				rr.Post("/{id}/notes", h.Requests.AddNote)

				rr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAction(auth.ActionSubmit, logger))
					mr.Post("/", h.Requests.Create)
				})
				rr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAction(auth.ActionReview, logger))
					mr.Put("/{id}", h.Requests.Update)
				})
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Get("/", h.Expenses.List)
				er.Get("/{id}", h.Expenses.Get)

				er.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAction(auth.ActionSubmit, logger))
					mr.Post("/", h.Expenses.Create)
				})
				er.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAction(auth.ActionReview, logger))
					mr.Put("/{id}", h.Expenses.Update)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(middleware.RequireAction(auth.ActionManageTeam, logger))
				ur.Get("/", h.Users.ListMembers)
				ur.Post("/", h.Users.AddMember)
				ur.Delete("/{id}", h.Users.RemoveMember)
				ur.Get("/search", h.Users.SearchUsers)
			})

			pr.Route("/settings/notifications", func(sr chi.Router) {
				sr.Get("/", h.Settings.GetNotificationSettings)
				sr.Post("/", h.Settings.UpdateNotificationSettings)

				sr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireAction(auth.ActionConfigure, logger))
					mr.Post("/test-webhook", h.Settings.TestWebhook)
				})
			})

			pr.Group(func(dr chi.Router) {
				dr.Use(middleware.RequireAction(auth.ActionViewDashboard, logger))
				dr.Get("/dashboard/stats", h.Dashboard.GetStats)
			})
		})
	})
}
