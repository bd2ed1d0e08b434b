package settings_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/settings"
)

type mockSettingsRepository struct {
	values map[string]string
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{values: make(map[string]string)}
}

func (m *mockSettingsRepository) Get(key string) (string, error) {
	v, exists := m.values[key]
	if !exists {
		return "", settings.ErrNotFound
	}
	return v, nil
}

func (m *mockSettingsRepository) Set(key, value string) error {
	m.values[key] = value
	return nil
}

var _ = Describe("SettingsService", func() {
	var (
		service  *settings.Service
		mockRepo *mockSettingsRepository
	)

	BeforeEach(func() {
		mockRepo = newMockSettingsRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = settings.NewService(mockRepo, logger)
	})

	Describe("RemindersEnabled", func() {
		It("defaults to enabled when never written", func() {
			Expect(service.RemindersEnabled()).To(BeTrue())
		})

		It("round-trips the toggle", func() {
			Expect(service.SetRemindersEnabled(false)).To(Succeed())
			Expect(service.RemindersEnabled()).To(BeFalse())

			Expect(service.SetRemindersEnabled(true)).To(Succeed())
			Expect(service.RemindersEnabled()).To(BeTrue())
		})
	})

	Describe("TelegramBotToken", func() {
		It("errors when no token is configured", func() {
			_, err := service.TelegramBotToken()

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNoBotToken))
			Expect(service.HasBotToken()).To(BeFalse())
		})

		It("returns the stored token", func() {
			Expect(service.SetTelegramBotToken("123456:bot-secret")).To(Succeed())

			token, err := service.TelegramBotToken()
			Expect(err).ToNot(HaveOccurred())
			Expect(token).To(Equal("123456:bot-secret"))
			Expect(service.HasBotToken()).To(BeTrue())
		})
	})
})
