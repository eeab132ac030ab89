package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jasur93/complyai-itpark/internal/application"
	appcompliance "github.com/jasur93/complyai-itpark/internal/application/compliance"
	appreports "github.com/jasur93/complyai-itpark/internal/application/reports"
	apprules "github.com/jasur93/complyai-itpark/internal/application/rules"
	"github.com/jasur93/complyai-itpark/internal/config"
	"github.com/jasur93/complyai-itpark/internal/domain/advisor"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
	openaiadvisor "github.com/jasur93/complyai-itpark/internal/infra/ai/openai"
	mysqlp "github.com/jasur93/complyai-itpark/internal/infra/db/mysql"
	postgresp "github.com/jasur93/complyai-itpark/internal/infra/db/postgres"
	"github.com/jasur93/complyai-itpark/internal/infra/httpserver"
	minioStore "github.com/jasur93/complyai-itpark/internal/infra/storage"
	"github.com/jasur93/complyai-itpark/internal/middleware"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx := context.Background()

	// connect database, driver-selectable
	var (
		ruleRepo       domain.RuleRepository
		snapshotRepo   domain.SnapshotRepository
		assessmentRepo domain.AssessmentRepository
		healthCheckers = map[string]middleware.HealthChecker{}
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect error")
		}
		defer db.Close()
		ruleRepo = postgresp.NewRuleRepository(db)
		snapshotRepo = postgresp.NewSnapshotRepository(db)
		assessmentRepo = postgresp.NewAssessmentRepository(db)
		healthCheckers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("mysql connect error")
		}
		defer db.Close()
		ruleRepo = mysqlp.NewRuleRepository(db)
		snapshotRepo = mysqlp.NewSnapshotRepository(db)
		assessmentRepo = mysqlp.NewAssessmentRepository(db)
		healthCheckers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// document storage is optional; without it trip documents and archives
	// are simply not stored
	var documents domain.DocumentStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("minio init error")
		}
		documents = store
	}

	// advisor stays nil without a credential; analyses then degrade to
	// rule-only scoring
	var adv advisor.Advisor
	if cfg.OpenAI.APIKey != "" {
		adv = openaiadvisor.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, logger)
	} else {
		logger.Warn().Msg("no OpenAI credential configured, anomaly detection disabled")
	}

	clock := application.SystemClock{}
	complianceSvc := &appcompliance.Service{
		Rules:       ruleRepo,
		Snapshots:   snapshotRepo,
		Assessments: assessmentRepo,
		Advisor:     adv,
		Documents:   documents,
		Clock:       clock,
		Logger:      logger,
	}
	reportsSvc := &appreports.Service{
		Snapshots: snapshotRepo,
		Documents: documents,
		Clock:     clock,
		Logger:    logger,
	}
	rulesSvc := &apprules.Service{Repo: ruleRepo, Clock: clock}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.Logging(&logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.Keys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	}
	if cfg.RateLimit.Capacity > 0 && cfg.RateLimit.RefillRate > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	}
	mux.Get("/health", middleware.HealthHandler(healthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(complianceSvc, reportsSvc, rulesSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
