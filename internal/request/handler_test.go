package request_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/request"
	requestPostgres "github.com/officeteam/office-utilities/internal/request/postgres"
	"github.com/officeteam/office-utilities/internal/workflow"
)

type alwaysOnSettings struct{}

func (alwaysOnSettings) RemindersEnabled() bool { return true }

var _ = Describe("Request Handler Integration", func() {
	var (
		db      *gorm.DB
		service *request.Service
		handler *request.Handler
		router  *chi.Mux
		admin   *auth.User
		member  *auth.User
	)

	actAs := func(actor *auth.User) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), actor)))
			})
		}
	}

	buildRouter := func(actor *auth.User) *chi.Mux {
		r := chi.NewRouter()
		r.Use(actAs(actor))
		r.Get("/requests", handler.List)
		r.Post("/requests", handler.Create)
		r.Get("/requests/{id}", handler.Get)
		r.Put("/requests/{id}", handler.Update)
		r.Post("/requests/{id}/notes", handler.AddNote)
		r.Get("/requests/{id}/notes", handler.ListNotes)
		return r
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&request.Request{}, &request.Note{})
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(slogger)
		repo := requestPostgres.NewRepository(db)
		service = request.NewService(repo, alwaysOnSettings{}, bus, slogger)
		handler = request.NewHandler(service)

		admin = &auth.User{ID: 1, Email: "alice@office.test", Name: "alice", IsAdmin: true}
		member = &auth.User{ID: 42, Email: "maria@office.test", Name: "maria", IsMember: true}
		router = buildRouter(admin)
	})

	createRequest := func(authorID int64, title string) *request.Request {
		req, err := service.Create(context.Background(), authorID, request.CreateRequestDTO{
			Title:    title,
			Priority: request.PriorityMedium,
		})
		Expect(err).NotTo(HaveOccurred())
		return req
	}

	Describe("POST /requests", func() {
		It("stores a pending request and returns 201", func() {
			body, _ := json.Marshal(map[string]interface{}{
				"title":       "New monitor",
				"description": "27 inch",
				"priority":    "high",
			})
			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var created request.Request
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.ID).NotTo(BeZero())
			Expect(created.Status).To(Equal(workflow.StatusPending))
			Expect(created.Title).To(Equal("New monitor"))
		})

		It("rejects a blank title", func() {
			body, _ := json.Marshal(map[string]interface{}{"title": "   "})
			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /requests", func() {
		It("scopes members to their own requests", func() {
			createRequest(member.ID, "Mine")
			createRequest(admin.ID, "Not mine")

			memberRouter := buildRouter(member)
			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			w := httptest.NewRecorder()

			memberRouter.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response struct {
				Requests []*request.Request `json:"requests"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Requests).To(HaveLen(1))
			Expect(response.Requests[0].Title).To(Equal("Mine"))
		})

		It("shows admins everything", func() {
			createRequest(member.ID, "Mine")
			createRequest(admin.ID, "Not mine")

			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			var response struct {
				Requests []*request.Request `json:"requests"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Requests).To(HaveLen(2))
		})
	})

	Describe("PUT /requests/{id}", func() {
		It("moves a pending request to in_progress", func() {
			created := createRequest(member.ID, "Laptop")

			body, _ := json.Marshal(map[string]interface{}{"status": "in_progress"})
			req := httptest.NewRequest(http.MethodPut, "/requests/"+itoa(created.ID), bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var updated request.Request
			Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
			Expect(updated.Status).To(Equal(workflow.StatusInProgress))
		})

		It("answers 409 when the same transition is replayed", func() {
			created := createRequest(member.ID, "Laptop")

			status := workflow.StatusInProgress
			_, err := service.Update(context.Background(), created.ID, request.UpdateRequestDTO{
				Status: &status,
			})
			Expect(err).NotTo(HaveOccurred())

			body, _ := json.Marshal(map[string]interface{}{"status": "in_progress"})
			req := httptest.NewRequest(http.MethodPut, "/requests/"+itoa(created.ID), bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("rejects an illegal transition", func() {
			created := createRequest(member.ID, "Laptop")

			body, _ := json.Marshal(map[string]interface{}{"status": "completed"})
			req := httptest.NewRequest(http.MethodPut, "/requests/"+itoa(created.ID), bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 404 for a missing request", func() {
			body, _ := json.Marshal(map[string]interface{}{"status": "in_progress"})
			req := httptest.NewRequest(http.MethodPut, "/requests/9999", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("notes", func() {
		It("round-trips a note on an owned request", func() {
			created := createRequest(member.ID, "Laptop")
			memberRouter := buildRouter(member)

			body, _ := json.Marshal(map[string]interface{}{"body": "any update?"})
			req := httptest.NewRequest(http.MethodPost, "/requests/"+itoa(created.ID)+"/notes", bytes.NewReader(body))
			w := httptest.NewRecorder()
			memberRouter.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusCreated))

			req = httptest.NewRequest(http.MethodGet, "/requests/"+itoa(created.ID)+"/notes", nil)
			w = httptest.NewRecorder()
			memberRouter.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response struct {
				Notes []*request.Note `json:"notes"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Notes).To(HaveLen(1))
			Expect(response.Notes[0].Body).To(Equal("any update?"))
		})

		It("hides other members' requests", func() {
			created := createRequest(admin.ID, "Not yours")
			memberRouter := buildRouter(member)

			req := httptest.NewRequest(http.MethodGet, "/requests/"+itoa(created.ID)+"/notes", nil)
			w := httptest.NewRecorder()
			memberRouter.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
