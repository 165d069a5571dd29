// Package server wires handlers, middleware and routes into an HTTP server.
//
// This is the composition root: New assembles the whole dependency chain
// (sqlite DB → repositories → services → handlers) in one place, so every
// other package stays free of construction logic.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/backup"
	"github.com/rustamov/gift-market/internal/config"
	"github.com/rustamov/gift-market/internal/handler"
	"github.com/rustamov/gift-market/internal/middleware"
	sqliteRepo "github.com/rustamov/gift-market/internal/repository/sqlite"
	"github.com/rustamov/gift-market/internal/service"
)

// Server owns the router, the database connection, and the backup scheduler.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	backups *backup.Scheduler
}

// New creates the server and wires all dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	backups, err := backup.NewScheduler(cfg.DBPath, cfg.BackupDir, cfg.BackupInterval, cfg.BackupKeep, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating backup scheduler: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		backups: backups,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/telegram          → login (initData → JWT)
//	GET  /api/health                 → liveness
//	GET  /api/items/list             → catalogue (public)
//	GET  /api/user/profile           → account row            [auth]
//	POST /api/nft/buy                → purchase engine        [auth]
//	POST /api/gifts/send             → gift transfer engine   [auth]
//	POST /api/gifts/open             → open transition        [auth]
//	GET  /api/gifts/inbox            → received gifts         [auth]
//	GET  /api/season/stats           → user + global stats    [auth]
//	GET  /api/season/leaderboard     → top users              [auth]
//	GET  /api/season/progress        → blended progress       [auth]
//	GET  /api/tasks                  → active tasks           [auth]
//	POST /api/tasks/complete/{taskId}→ idempotent completion  [auth]
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The Mini App frontend is served from a different origin than the API.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === AUTH PLUMBING ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	verifier, err := auth.NewTelegramVerifier(s.config.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("creating telegram verifier: %w", err)
	}

	// === SERVICES ===
	// The sqlite DB implements every repository interface; services receive
	// only the interfaces they need.
	season := s.config.CurrentSeason
	identity := service.NewIdentityService(s.db, s.logger, season)
	market := service.NewMarketService(s.db, s.db, s.db, s.db, s.logger, season)
	gifts := service.NewGiftService(s.db, s.db, s.db, s.db, s.logger, season)
	seasons := service.NewSeasonService(s.db, s.db, s.db, s.logger, season)
	tasks := service.NewTaskService(s.db, s.db, s.db, s.logger, season)

	// === HANDLERS ===
	authHandler := handler.NewAuthHandler(verifier, tokens, identity, s.logger)
	userHandler := handler.NewUserHandler(identity, s.logger)
	marketHandler := handler.NewMarketHandler(market, s.logger)
	giftHandler := handler.NewGiftHandler(gifts, s.logger)
	seasonHandler := handler.NewSeasonHandler(seasons, s.logger)
	taskHandler := handler.NewTaskHandler(tasks, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/telegram", authHandler.HandleTelegramLogin)
		r.Get("/items/list", marketHandler.HandleListItems)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"status":"ok","timestamp":%q}`, time.Now().UTC().Format(time.RFC3339))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user/profile", userHandler.HandleProfile)
			r.Post("/nft/buy", marketHandler.HandleBuy)
			r.Post("/gifts/send", giftHandler.HandleSend)
			r.Post("/gifts/open", giftHandler.HandleOpen)
			r.Get("/gifts/inbox", giftHandler.HandleInbox)
			r.Get("/season/stats", seasonHandler.HandleStats)
			r.Get("/season/leaderboard", seasonHandler.HandleLeaderboard)
			r.Get("/season/progress", seasonHandler.HandleProgress)
			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks/complete/{taskId}", taskHandler.HandleComplete)
		})
	})

	return nil
}

// Start runs the HTTP server and the backup scheduler until SIGINT/SIGTERM,
// then shuts down gracefully: stop accepting connections, drain in-flight
// requests (up to 30s), stop the scheduler, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Backup scheduler lives for the lifetime of the server.
	backupCtx, stopBackups := context.WithCancel(context.Background())
	defer stopBackups()
	go s.backups.Run(backupCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Int("season", s.config.CurrentSeason),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
