package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/agilehub/practice-engine/pkg/cache"
	"github.com/agilehub/practice-engine/pkg/config"
	"github.com/agilehub/practice-engine/pkg/database"
	"github.com/agilehub/practice-engine/pkg/handlers"
	"github.com/agilehub/practice-engine/pkg/middleware"
	"github.com/agilehub/practice-engine/pkg/repositories"
	"github.com/agilehub/practice-engine/pkg/services"
	"github.com/agilehub/practice-engine/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Host),
		zap.Int("recalc_workers", cfg.Engine.RecalcWorkers),
		zap.Int("default_threshold", cfg.Engine.DefaultThreshold))

	ctx := context.Background()

	// PostgreSQL connection pool
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger.Named("migrations")); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Redis cache; nil client means the engine computes every read live
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	var store cache.Store
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		store = cache.NewRedisStore(redisClient)
		logger.Info("Cache enabled", zap.String("redis", cfg.Redis.Host))
	} else {
		logger.Info("Cache disabled (no Redis host configured)")
	}

	// Repositories
	surveyRepo := repositories.NewSurveyRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	practiceRepo := repositories.NewPracticeRepository(db)
	affinityRepo := repositories.NewAffinityRepository(db)
	teamRepo := repositories.NewTeamRepository(db)

	// Recalculation queue: same-person tasks run in submission order,
	// different persons in parallel up to RecalcWorkers
	queue := workqueue.New(logger,
		workqueue.WithMaxConcurrent(cfg.Engine.RecalcWorkers))
	defer queue.Cancel()

	// Services
	affinitySvc := services.NewAffinityService(
		profileRepo, practiceRepo, affinityRepo,
		store, cfg.Engine.PersonAffinityTTL, logger.Named("affinity"))
	surveySvc := services.NewSurveyService(
		surveyRepo, profileRepo, services.DefaultCatalogue(),
		services.NewQueueScheduler(queue, affinitySvc), logger.Named("survey"))
	teamSvc := services.NewTeamService(
		affinityRepo, practiceRepo,
		store, cfg.Engine.TeamAffinityTTL, logger.Named("team"))
	recommendationSvc := services.NewRecommendationService(
		practiceRepo, teamRepo, teamSvc,
		store, cfg.Engine.RecommendationTTL, logger.Named("recommendation"))

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSurveyHandler(surveySvc, logger.Named("handlers")).RegisterRoutes(mux)
	handlers.NewAffinityHandler(affinitySvc, teamSvc, logger.Named("handlers")).RegisterRoutes(mux)
	handlers.NewRecommendationHandler(recommendationSvc, cfg.Engine.DefaultThreshold, logger.Named("handlers")).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger.Named("http"))(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting practice-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
