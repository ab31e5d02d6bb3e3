package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/auth"
	"github.com/learnloop/backend/internal/config"
	"github.com/learnloop/backend/internal/database"
	"github.com/learnloop/backend/internal/events"
	"github.com/learnloop/backend/internal/gamification"
	"github.com/learnloop/backend/internal/generator"
	"github.com/learnloop/backend/internal/logging"
	"github.com/learnloop/backend/internal/mastery"
	"github.com/learnloop/backend/internal/metrics"
	"github.com/learnloop/backend/internal/middleware"
	"github.com/learnloop/backend/internal/session"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file; environment variables override it")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log)
	defer logger.Sync()

	m := metrics.New()

	// Storage
	var (
		masteryStore mastery.Store
		ledger       gamification.Ledger
		learners     auth.Store
	)
	if cfg.Storage == config.StorageSQL {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		masteryStore = mastery.NewSQLStore(db)
		ledger = gamification.NewSQLLedger(db)
		learners = auth.NewSQLStore(db)
		logger.Info("using sql storage", zap.String("driver", cfg.Database.Driver))
	} else {
		masteryStore = mastery.NewMemoryStore()
		ledger = gamification.NewMemoryLedger()
		learners = auth.NewMemoryStore()
		logger.Warn("using in-memory storage, state is lost on restart")
	}

	// Content generation
	gen, err := generator.New(cfg.Generator, logger)
	if err != nil {
		logger.Fatal("failed to configure content generator", zap.Error(err))
	}
	if closer, ok := gen.(io.Closer); ok {
		defer closer.Close()
	}
	gateway := generator.NewGateway(gen, cfg.Generator.Timeout, logger, m)

	// Events
	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.RabbitMQ.URL != "" {
		conn, err := events.NewConnection(cfg.RabbitMQ.URL, logger, cfg.RabbitMQ.XPQueue, cfg.RabbitMQ.ChallengesQueue)
		if err != nil {
			logger.Fatal("failed to connect to event broker", zap.Error(err))
		}
		defer conn.Close()
		publisher = events.NewAMQPPublisher(conn, cfg.RabbitMQ.XPQueue, cfg.RabbitMQ.ChallengesQueue)
	}

	sessions := session.NewService(masteryStore, gateway, ledger, publisher, session.Options{
		Rewards: gamification.Rewards{
			PerCorrect:  cfg.Rewards.PerCorrect,
			StreakBonus: cfg.Rewards.StreakBonus,
			Complete:    cfg.Rewards.Complete,
			Perfect:     cfg.Rewards.Perfect,
		},
		IdleTTL:   cfg.Session.IdleTTL,
		BatchSize: cfg.Generator.BatchSize,
		Metrics:   m,
	}, logger)

	// Handlers
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Expiry)
	authHandler := auth.NewHandler(learners, tokens, logger)
	sessionHandler := session.NewHandler(sessions, logger)
	xpHandler := gamification.NewHandler(ledger, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(m.Middleware)
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(tokens))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentLearner).Methods("GET")
	sessionHandler.RegisterRoutes(protected)
	xpHandler.RegisterRoutes(protected)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down", zap.Int("active_sessions", sessions.ActiveSessions()))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
