package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/workbridge/backend/internal/auth"
	"github.com/workbridge/backend/internal/config"
	"github.com/workbridge/backend/internal/dashboard"
	"github.com/workbridge/backend/internal/db"
	"github.com/workbridge/backend/internal/handlers"
	"github.com/workbridge/backend/internal/middleware"
	"github.com/workbridge/backend/internal/notify"
	"github.com/workbridge/backend/internal/repository"
	"github.com/workbridge/backend/internal/router"
	"github.com/workbridge/backend/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("Connected to PostgreSQL database successfully!")

	if err := db.EnsureSchema(ctx, pool); err != nil {
		slog.Error("Schema setup failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	applicationRepo := repository.NewApplicationRepo(pool)
	transactionRepo := repository.NewTransactionRepo(pool)
	creditRequestRepo := repository.NewCreditRequestRepo(pool)

	// Notification inserts are set after the River client exists (breaks init cycle)
	var insertMu sync.Mutex
	var insertDecisionFn services.InsertApplicationDecidedTxFunc
	var insertPayoutFn services.InsertPayoutRecordedTxFunc
	insertDecision := func(ctx context.Context, tx pgx.Tx, args notify.ApplicationDecidedArgs) error {
		insertMu.Lock()
		fn := insertDecisionFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}
	insertPayout := func(ctx context.Context, tx pgx.Tx, args notify.PayoutRecordedArgs) error {
		insertMu.Lock()
		fn := insertPayoutFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	// Services
	escrowSvc := services.NewEscrowService(userRepo, transactionRepo)
	applicationSvc := services.NewApplicationService(pool, projectRepo, applicationRepo, escrowSvc, insertDecision)
	projectSvc := services.NewProjectService(pool, projectRepo, escrowSvc, insertPayout)
	creditSvc := services.NewCreditService(pool, userRepo, transactionRepo, creditRequestRepo)
	matcher := services.NewMatcher(projectRepo)

	// River workers
	workers := river.NewWorkers()
	river.AddWorker(workers, &notify.ApplicationDecidedWorker{Logger: logger})
	river.AddWorker(workers, &notify.PayoutRecordedWorker{Logger: logger})

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertDecisionFn = func(ctx context.Context, tx pgx.Tx, args notify.ApplicationDecidedArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertPayoutFn = func(ctx context.Context, tx pgx.Tx, args notify.PayoutRecordedArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()

	// Auth
	authSvc := auth.NewService(userRepo, []byte(cfg.JWTSecret))
	authHandler := auth.NewHandler(authSvc, logger)
	if err := auth.EnsureAdmin(ctx, userRepo, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		slog.Error("Admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	// HTTP handlers
	projectHandler := &handlers.ProjectHandler{Service: projectSvc, Matcher: matcher, Logger: logger}
	applicationHandler := &handlers.ApplicationHandler{Service: applicationSvc, Logger: logger}
	creditHandler := &handlers.CreditHandler{Service: creditSvc, Logger: logger}
	dashHandler := dashboard.NewHandler(userRepo, logger)

	authMW := middleware.JWTAuth(authSvc, userRepo)
	apiRouter := router.New(authHandler, projectHandler, applicationHandler, creditHandler, dashHandler, authMW)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	// Start River client (processes notification jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
