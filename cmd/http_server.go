package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/officeteam/office-utilities/internal"
	"github.com/officeteam/office-utilities/internal/auth"
	authpg "github.com/officeteam/office-utilities/internal/auth/postgres"
	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/dashboard"
	"github.com/officeteam/office-utilities/internal/expense"
	expensepg "github.com/officeteam/office-utilities/internal/expense/postgres"
	"github.com/officeteam/office-utilities/internal/mailer"
	"github.com/officeteam/office-utilities/internal/notification"
	"github.com/officeteam/office-utilities/internal/request"
	requestpg "github.com/officeteam/office-utilities/internal/request/postgres"
	"github.com/officeteam/office-utilities/internal/settings"
	settingspg "github.com/officeteam/office-utilities/internal/settings/postgres"
	"github.com/officeteam/office-utilities/internal/telegram"
	"github.com/officeteam/office-utilities/internal/transport/rest"
	"github.com/officeteam/office-utilities/internal/user"
	userpg "github.com/officeteam/office-utilities/internal/user/postgres"
	"github.com/officeteam/office-utilities/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := openGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(log)

	settingsSvc := settings.NewService(settingspg.NewRepository(gormDB), log)
	userSvc := user.NewService(userpg.NewRepository(gormDB), log)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authSvc := auth.NewService(authpg.NewRepository(gormDB), tokenGen)

	requestSvc := request.NewService(requestpg.NewRepository(gormDB), settingsSvc, bus, log)
	expenseSvc := expense.NewService(expensepg.NewRepository(gormDB), settingsSvc, bus, config.App.Currency, log)

	tgClient := telegram.NewClient(settingsSvc, log)
	smtpMailer := mailer.New(config.Mailer)

	router := notification.NewRouter(smtpMailer, tgClient, userSvc,
		config.App.DashboardURL, config.App.AdminEmail, log)
	router.Register(bus)

	tgService := telegram.NewService(tgClient, userSvc, requestSvc, expenseSvc, log)

	dashboardSvc := dashboard.NewService(userSvc, requestSvc, expenseSvc, config.App.Currency, log)

	handlers := rest.Handlers{
		Auth:      auth.NewHandler(authSvc),
		Requests:  request.NewHandler(requestSvc),
		Expenses:  expense.NewHandler(expenseSvc),
		Users:     user.NewHandler(userSvc),
		Settings:  settings.NewHandler(settingsSvc, userSvc, tgClient),
		Dashboard: dashboard.NewHandler(dashboardSvc),
		Webhook:   telegram.NewWebhookHandler(tgService),
	}

	return &Dependencies{
		Config:   config,
		Logger:   log,
		DB:       db,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm layers the ORM over the already-pooled connection so both
// share one pool.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
