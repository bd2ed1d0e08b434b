package telegram_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-telegram/bot/models"

	"github.com/officeteam/office-utilities/internal/expense"
	"github.com/officeteam/office-utilities/internal/request"
	"github.com/officeteam/office-utilities/internal/telegram"
	"github.com/officeteam/office-utilities/internal/user"
	"github.com/officeteam/office-utilities/internal/workflow"
)

// fakeBotAPI records every Bot API call the client makes.
type fakeBotAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

type apiCall struct {
	Method string
	Body   string
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Method: method, Body: string(body)})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "answerCallbackQuery":
			w.Write([]byte(`{"ok":true,"result":true}`))
		case "getWebhookInfo":
			w.Write([]byte(`{"ok":true,"result":{"url":"https://office.test/v1/telegram/webhook","has_custom_certificate":false,"pending_update_count":0}}`))
		default:
			w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":1,"type":"private"}}}`))
		}
	})
}

func (f *fakeBotAPI) callsFor(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBotAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticTokenSource struct{}

func (staticTokenSource) TelegramBotToken() (string, error) {
	return "123456:test-token", nil
}

// user repo mock shared with the user service
type metaKey struct {
	userID int64
	key    string
}

type mockUserRepository struct {
	users map[int64]*user.User
	meta  map[metaKey]string
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[int64]*user.User),
		meta:  make(map[metaKey]string),
	}
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepository) ListAdmins() ([]*user.User, error)  { return nil, nil }
func (m *mockUserRepository) ListMembers() ([]*user.User, error) { return nil, nil }
func (m *mockUserRepository) SearchNonMembers(string, int) ([]*user.User, error) {
	return nil, nil
}
func (m *mockUserRepository) CountMembers() (int64, error) { return 0, nil }

func (m *mockUserRepository) GetMeta(userID int64, key string) (string, error) {
	v, ok := m.meta[metaKey{userID, key}]
	if !ok {
		return "", user.ErrMetaNotFound
	}
	return v, nil
}

func (m *mockUserRepository) SetMeta(userID int64, key, value string) error {
	m.meta[metaKey{userID, key}] = value
	return nil
}

func (m *mockUserRepository) DeleteMeta(userID int64, key string) error {
	delete(m.meta, metaKey{userID, key})
	return nil
}

func (m *mockUserRepository) FindByMeta(key, value string) (*user.User, error) {
	for mk, v := range m.meta {
		if mk.key == key && v == value {
			return m.GetByID(mk.userID)
		}
	}
	return nil, user.ErrNotFound
}

type fakeRequestFlow struct {
	result  *request.Request
	applied bool
	err     error
	calls   int
}

func (f *fakeRequestFlow) Transition(_ context.Context, id int64, action string) (*request.Request, bool, error) {
	f.calls++
	return f.result, f.applied, f.err
}

type fakeExpenseFlow struct {
	result  *expense.Expense
	applied bool
	err     error
	calls   int
}

func (f *fakeExpenseFlow) Transition(_ context.Context, id int64, action string) (*expense.Expense, bool, error) {
	f.calls++
	return f.result, f.applied, f.err
}

func messageUpdate(chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Text: text,
			Chat: models.Chat{ID: chatID},
		},
	}
}

func callbackUpdate(fromID int64, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: models.User{ID: fromID},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{
					ID:   5,
					Chat: models.Chat{ID: fromID},
				},
			},
		},
	}
}

var _ = Describe("TelegramService", func() {
	var (
		api         *fakeBotAPI
		server      *httptest.Server
		service     *telegram.Service
		userSvc     *user.Service
		mockUsers   *mockUserRepository
		requestFlow *fakeRequestFlow
		expenseFlow *fakeExpenseFlow
		ctx         context.Context
	)

	BeforeEach(func() {
		api = &fakeBotAPI{}
		server = httptest.NewServer(api.handler())
		DeferCleanup(server.Close)

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client := telegram.NewClient(staticTokenSource{}, logger, telegram.WithServerURL(server.URL))

		mockUsers = newMockUserRepository()
		userSvc = user.NewService(mockUsers, logger)
		requestFlow = &fakeRequestFlow{}
		expenseFlow = &fakeExpenseFlow{}

		service = telegram.NewService(client, userSvc, requestFlow, expenseFlow, logger)
		ctx = context.Background()
	})

	addUser := func(id int64, name string, isAdmin bool) *user.User {
		u := &user.User{ID: id, Name: name, Email: name + "@office.test", IsAdmin: isAdmin, IsActive: true}
		mockUsers.users[id] = u
		return u
	}

	Describe("/start", func() {
		It("replies with linking instructions when no code is given", func() {
			service.HandleUpdate(ctx, messageUpdate(500, "/start"))

			sends := api.callsFor("sendMessage")
			Expect(sends).To(HaveLen(1))
			Expect(sends[0].Body).To(ContainSubstring("generate a link code"))
		})

		It("links the account with a valid code", func() {
			maria := addUser(42, "maria", false)
			token, err := userSvc.GenerateLinkToken(maria.ID)
			Expect(err).ToNot(HaveOccurred())

			service.HandleUpdate(ctx, messageUpdate(500, "/start "+token))

			sends := api.callsFor("sendMessage")
			Expect(sends).To(HaveLen(1))
			Expect(sends[0].Body).To(ContainSubstring("now linked"))

			prefs := userSvc.PrefsFor(maria.ID)
			Expect(prefs.TelegramChatID).To(Equal("500"))
			Expect(prefs.TelegramEnabled).To(BeTrue())
		})

		It("rejects an expired code without linking", func() {
			maria := addUser(42, "maria", false)
			token, err := userSvc.GenerateLinkToken(maria.ID)
			Expect(err).ToNot(HaveOccurred())

			expired := time.Now().Add(-time.Minute).Unix()
			mockUsers.meta[metaKey{maria.ID, user.MetaKeyTelegramTokenExpiry}] = strconv.FormatInt(expired, 10)

			service.HandleUpdate(ctx, messageUpdate(500, "/start "+token))

			sends := api.callsFor("sendMessage")
			Expect(sends).To(HaveLen(1))
			Expect(sends[0].Body).To(ContainSubstring("expired"))
			Expect(userSvc.PrefsFor(maria.ID).TelegramChatID).To(BeEmpty())
		})

		It("rejects an unknown code", func() {
			service.HandleUpdate(ctx, messageUpdate(500, "/start ZZZZZZ"))

			sends := api.callsFor("sendMessage")
			Expect(sends).To(HaveLen(1))
			Expect(sends[0].Body).To(ContainSubstring("Invalid link code"))
		})

		It("ignores other messages entirely", func() {
			service.HandleUpdate(ctx, messageUpdate(500, "hello bot"))

			Expect(api.total()).To(BeZero())
		})
	})

	Describe("callback dispatch", func() {
		linkAdmin := func(chatID int64) *user.User {
			admin := addUser(1, "alice", true)
			mockUsers.meta[metaKey{admin.ID, user.MetaKeyTelegramChatID}] = strconv.FormatInt(chatID, 10)
			return admin
		}

		It("only acknowledges malformed callback data", func() {
			linkAdmin(100)

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:request"))

			Expect(api.callsFor("answerCallbackQuery")).To(HaveLen(1))
			Expect(api.callsFor("sendMessage")).To(BeEmpty())
			Expect(api.callsFor("editMessageText")).To(BeEmpty())
			Expect(requestFlow.calls).To(BeZero())
		})

		It("rejects presses from unlinked chats", func() {
			service.HandleUpdate(ctx, callbackUpdate(100, "approve:request:12"))

			acks := api.callsFor("answerCallbackQuery")
			Expect(acks).To(HaveLen(1))
			Expect(acks[0].Body).To(ContainSubstring("Unauthorized"))
			Expect(requestFlow.calls).To(BeZero())
		})

		It("rejects presses from linked non-admins", func() {
			maria := addUser(42, "maria", false)
			mockUsers.meta[metaKey{maria.ID, user.MetaKeyTelegramChatID}] = "100"

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:request:12"))

			acks := api.callsFor("answerCallbackQuery")
			Expect(acks).To(HaveLen(1))
			Expect(acks[0].Body).To(ContainSubstring("Unauthorized"))
		})

		It("applies an admin approve and edits the original message", func() {
			linkAdmin(100)
			requestFlow.result = &request.Request{ID: 12, Status: workflow.StatusInProgress}
			requestFlow.applied = true

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:request:12"))

			Expect(requestFlow.calls).To(Equal(1))
			edits := api.callsFor("editMessageText")
			Expect(edits).To(HaveLen(1))
			Expect(edits[0].Body).To(ContainSubstring("in_progress"))

			acks := api.callsFor("answerCallbackQuery")
			Expect(acks).To(HaveLen(1))
			Expect(acks[0].Body).To(ContainSubstring("Processed successfully"))
		})

		It("answers a duplicate press with the already-processed text", func() {
			linkAdmin(100)
			requestFlow.result = &request.Request{ID: 12, Status: workflow.StatusInProgress}
			requestFlow.applied = false

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:request:12"))

			acks := api.callsFor("answerCallbackQuery")
			Expect(acks).To(HaveLen(1))
			Expect(acks[0].Body).To(ContainSubstring("Failed or already processed"))
			Expect(api.callsFor("editMessageText")).To(BeEmpty())
		})

		It("authorizes by the chat the button was pressed in, not the presser's private id", func() {
			linkAdmin(100)
			requestFlow.result = &request.Request{ID: 12, Status: workflow.StatusInProgress}
			requestFlow.applied = true

			upd := &models.Update{
				CallbackQuery: &models.CallbackQuery{
					ID:   "cb-2",
					Data: "approve:request:12",
					From: models.User{ID: 999},
					Message: models.MaybeInaccessibleMessage{
						Message: &models.Message{ID: 5, Chat: models.Chat{ID: 100}},
					},
				},
			}
			service.HandleUpdate(ctx, upd)

			Expect(requestFlow.calls).To(Equal(1))
			acks := api.callsFor("answerCallbackQuery")
			Expect(acks).To(HaveLen(1))
			Expect(acks[0].Body).To(ContainSubstring("Processed successfully"))
		})

		It("routes expense callbacks to the expense flow", func() {
			linkAdmin(100)
			expenseFlow.result = &expense.Expense{ID: 7, Status: workflow.StatusApproved}
			expenseFlow.applied = true

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:expense:7"))

			Expect(expenseFlow.calls).To(Equal(1))
			Expect(requestFlow.calls).To(BeZero())
		})

		It("only acknowledges unknown subject types", func() {
			linkAdmin(100)

			service.HandleUpdate(ctx, callbackUpdate(100, "approve:invoice:7"))

			Expect(api.callsFor("answerCallbackQuery")).To(HaveLen(1))
			Expect(requestFlow.calls).To(BeZero())
			Expect(expenseFlow.calls).To(BeZero())
		})
	})
})
