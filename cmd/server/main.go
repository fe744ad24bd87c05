package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agentmart.backend/internal/config"
	"agentmart.backend/internal/infrastructure/jobs"
	"agentmart.backend/internal/infrastructure/payments"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/internal/infrastructure/repositories"
	"agentmart.backend/internal/interfaces/http/handlers"
	"agentmart.backend/internal/interfaces/http/middleware"
	"agentmart.backend/internal/usecases"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Job queue producer
	redisAddr, redisPassword, redisDB := redis.ConnOptions()
	queueClient := queue.NewClient(redisAddr, redisPassword, redisDB)
	defer queueClient.Close()

	// Repositories
	uow := repositories.NewUnitOfWork(db)
	purchaseRepo := repositories.NewPurchaseRepository(db, uow)
	agentRepo := repositories.NewAgentRepository(db)
	autoPaymentRepo := repositories.NewAutoPaymentRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	txVerificationRepo := repositories.NewTxVerificationRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)
	experimentEventRepo := repositories.NewExperimentEventRepository(db)

	// Payment executor
	executor, err := payments.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize payment executor: %w", err)
	}

	// Usecases
	webhookUsecase := usecases.NewWebhookUsecase(webhookRepo, queueClient)
	txVerificationUsecase := usecases.NewTxVerificationUsecase(txVerificationRepo, queueClient)
	purchaseUsecase := usecases.NewPurchaseUsecase(
		purchaseRepo, auditLogRepo, experimentEventRepo,
		executor, webhookUsecase, txVerificationUsecase,
		cfg.Payments.Disabled,
	)
	autoPaymentUsecase := usecases.NewAutoPaymentUsecase(autoPaymentRepo, agentRepo, auditLogRepo)

	// Handlers
	purchaseHandler := handlers.NewPurchaseHandler(purchaseUsecase)
	autoPaymentHandler := handlers.NewAutoPaymentHandler(autoPaymentUsecase)
	healthHandler := handlers.NewHealthHandler(db)

	// Background scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := jobs.NewAutoPaymentScheduler(autoPaymentRepo, queueClient, cfg.Jobs.AutoPaymentPollInterval)
	go scheduler.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerRoutes(r, routeDeps{
		purchaseHandler:    purchaseHandler,
		autoPaymentHandler: autoPaymentHandler,
		healthHandler:      healthHandler,
	})

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("⏹️ Shutting down...")
		scheduler.Stop()
		cancel()
		logger.Sync()
		os.Exit(0)
	}()

	log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
	return runServer(r, cfg.Server.Port)
}
