package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/expense"
	expensepg "github.com/officeteam/office-utilities/internal/expense/postgres"
	"github.com/officeteam/office-utilities/internal/mailer"
	"github.com/officeteam/office-utilities/internal/notification"
	"github.com/officeteam/office-utilities/internal/reminder"
	"github.com/officeteam/office-utilities/internal/request"
	requestpg "github.com/officeteam/office-utilities/internal/request/postgres"
	"github.com/officeteam/office-utilities/internal/settings"
	settingspg "github.com/officeteam/office-utilities/internal/settings/postgres"
	"github.com/officeteam/office-utilities/internal/telegram"
	"github.com/officeteam/office-utilities/internal/user"
	userpg "github.com/officeteam/office-utilities/internal/user/postgres"
	"github.com/officeteam/office-utilities/pkg/logger"
)

// remindCmd runs one reminder sweep and exits. Meant to be invoked by
// cron, e.g. once a day.
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for submissions pending past their reminder date",
	Run: func(cmd *cobra.Command, args []string) {
		runReminderSweep()
	},
}

func runReminderSweep() {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	gormDB, err := openGorm(db)
	if err != nil {
		log.Fatalf("failed to init orm: %v", err)
	}

	bus := events.NewEventBus(lg)
	settingsSvc := settings.NewService(settingspg.NewRepository(gormDB), lg)
	userSvc := user.NewService(userpg.NewRepository(gormDB), lg)
	requestSvc := request.NewService(requestpg.NewRepository(gormDB), settingsSvc, bus, lg)
	expenseSvc := expense.NewService(expensepg.NewRepository(gormDB), settingsSvc, bus, cfg.App.Currency, lg)

	tgClient := telegram.NewClient(settingsSvc, lg)
	smtpMailer := mailer.New(cfg.Mailer)
	router := notification.NewRouter(smtpMailer, tgClient, userSvc,
		cfg.App.DashboardURL, cfg.App.AdminEmail, lg)

	scheduler := reminder.NewScheduler(requestSvc, expenseSvc, router, settingsSvc, lg)
	if err := scheduler.Sweep(context.Background()); err != nil {
		log.Fatalf("reminder sweep failed: %v", err)
	}
}
