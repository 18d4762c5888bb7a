package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/config"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/handler"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/sse"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// the event stream must not be buffered by gzip
const eventsPath = "/api/v1/events"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatalf("JWT secret is required (JWT_SECRET)")
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting launch planner",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(entity.Models()...); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	defer rdb.Close()

	catalog, err := loadCatalog(cfg.Planner.TemplateCatalog)
	if err != nil {
		zapLogger.Fatal("Failed to load template catalog", zap.Error(err),
			zap.String("path", cfg.Planner.TemplateCatalog))
	}

	hub := sse.NewHub(zapLogger)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg, hub, catalog, zapLogger)

	if err := bootstrap(services, catalog, cfg.Planner.AdminPassword); err != nil {
		zapLogger.Fatal("Startup seeding failed", zap.Error(err))
	}

	checks := map[string]handler.HealthCheck{
		"database": repos.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
	if services.GS1.Enabled() {
		checks["gs1"] = services.GS1.Ping
	}
	health := handler.NewHealthHandler(Version, BuildTime, checks)
	handlers := handler.NewHandlers(services, hub, health, zapLogger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.Server.AllowOrigins))
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{eventsPath})))

	handler.RegisterRoutes(router, handlers, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE connections are long-lived
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// bootstrap seeds templates, system roles and the admin account.
func bootstrap(svc *service.Services, catalog *schedule.Catalog, adminPassword string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Template.SeedDefaults(ctx, catalog); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	if err := svc.User.EnsureSystemRoles(ctx); err != nil {
		return fmt.Errorf("system roles: %w", err)
	}
	if err := svc.Auth.EnsureAdmin(ctx, svc.User, adminPassword); err != nil {
		return fmt.Errorf("admin account: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*schedule.Catalog, error) {
	if path == "" {
		return schedule.BuiltinCatalog(), nil
	}
	return schedule.LoadCatalogFile(path)
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig, level string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if level == "debug" {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// products and activities reference each other
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
