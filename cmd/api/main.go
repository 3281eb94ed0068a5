package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/rehab-api/internal/config"
	prescriptionHandler "github.com/jwalitptl/rehab-api/internal/handler/prescription"
	recommendationHandler "github.com/jwalitptl/rehab-api/internal/handler/recommendation"
	templateHandler "github.com/jwalitptl/rehab-api/internal/handler/template"
	"github.com/jwalitptl/rehab-api/internal/middleware"
	"github.com/jwalitptl/rehab-api/internal/repository/postgres"
	"github.com/jwalitptl/rehab-api/internal/router"
	"github.com/jwalitptl/rehab-api/internal/service/autoadjust"
	"github.com/jwalitptl/rehab-api/internal/service/catalog"
	prescriptionService "github.com/jwalitptl/rehab-api/internal/service/prescription"
	"github.com/jwalitptl/rehab-api/internal/service/progress"
	recommendationService "github.com/jwalitptl/rehab-api/internal/service/recommendation"
	"github.com/jwalitptl/rehab-api/pkg/messaging"
	"github.com/jwalitptl/rehab-api/pkg/logger"
	redisbroker "github.com/jwalitptl/rehab-api/pkg/messaging/redis"
	"github.com/jwalitptl/rehab-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	sessionRepo := postgres.NewSessionHistoryRepository(db)

	// Initialize event publisher
	var events messaging.Publisher = messaging.NewNoopPublisher()
	if cfg.Redis.Enabled {
		logger := log.Logger
		broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, &logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
		events = messaging.NewBrokerPublisher(broker, "rehab.prescriptions")
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New("rehab")
	engineMetrics.Register(registry)

	// Initialize services
	catalogSvc := catalog.NewService(templateRepo)
	lifecycleSvc := prescriptionService.NewService(prescriptionRepo, templateRepo, events, engineMetrics, prescriptionService.Config{
		MaxRepsIncrease:  cfg.Engine.MaxRepsIncrease,
		MaxRepsReduction: cfg.Engine.MaxRepsReduction,
		MaxSetsIncrease:  cfg.Engine.MaxSetsIncrease,
	})
	analyzer := progress.NewAnalyzer(progress.Config{
		MinSamples:     cfg.Engine.MinSamples,
		WindowSize:     cfg.Engine.WindowSize,
		TrendDelta:     cfg.Engine.TrendDelta,
		PlateauEpsilon: cfg.Engine.PlateauEpsilon,
		AdherenceWeeks: cfg.Engine.AdherenceWeeks,
	})
	engineCfg := recommendationService.DefaultConfig()
	engineCfg.HighFormScore = cfg.Engine.HighFormScore
	engineCfg.LowFormScore = cfg.Engine.LowFormScore
	engineCfg.ProgressionAccuracy = cfg.Engine.ProgressionAccuracy
	engineCfg.AdherenceConcern = cfg.Engine.AdherenceConcern
	engineCfg.RepsStep = cfg.Engine.RepsStep
	engine := recommendationService.NewEngine(engineCfg)
	recommenderSvc := recommendationService.NewService(prescriptionRepo, sessionRepo, analyzer, engine, engineMetrics)
	adjusterSvc := autoadjust.NewService(prescriptionRepo, recommenderSvc, lifecycleSvc, autoadjust.Config{
		AutoApplyThreshold: cfg.Engine.AutoApplyThreshold,
		RepsStep:           cfg.Engine.RepsStep,
		MaxRepsIncrease:    cfg.Engine.MaxRepsIncrease,
		MaxSetsIncrease:    cfg.Engine.MaxSetsIncrease,
	})

	// Initialize handlers and router
	r := router.New(router.Config{
		RateLimit:  100,
		RateBurst:  200,
		CORSConfig: middleware.DefaultCORSConfig(),
		Registry:   registry,
	},
		templateHandler.NewHandler(catalogSvc),
		prescriptionHandler.NewHandler(lifecycleSvc),
		recommendationHandler.NewHandler(recommenderSvc, adjusterSvc),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
