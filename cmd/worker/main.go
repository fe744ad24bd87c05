package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agentmart.backend/internal/config"
	"agentmart.backend/internal/infrastructure/blockchain"
	"agentmart.backend/internal/infrastructure/jobs"
	"agentmart.backend/internal/infrastructure/payments"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/internal/infrastructure/repositories"
	"agentmart.backend/internal/usecases"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/netguard"
	"agentmart.backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger.Init(cfg.Server.Env)
	logger.Info(context.Background(), "Worker logger initialized", zap.String("env", cfg.Server.Env))

	if err := redis.Init(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.URL(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Repositories
	autoPaymentRepo := repositories.NewAutoPaymentRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	txVerificationRepo := repositories.NewTxVerificationRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)
	experimentEventRepo := repositories.NewExperimentEventRepository(db)

	redisAddr, redisPassword, redisDB := redis.ConnOptions()
	queueClient := queue.NewClient(redisAddr, redisPassword, redisDB)
	defer queueClient.Close()

	webhookUsecase := usecases.NewWebhookUsecase(webhookRepo, queueClient)

	executor, err := payments.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize payment executor: %w", err)
	}

	chainClient, err := blockchain.NewEVMClient(cfg.Payments.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to initialize chain client: %w", err)
	}

	// Task handlers
	webhookHandler := jobs.NewWebhookDeliveryHandler(cfg.Webhooks.DeliveryTimeout, netguard.Options{
		AllowPrivateHosts: cfg.Webhooks.AllowPrivateHosts,
		AllowHTTP:         cfg.Webhooks.AllowHTTP,
	})
	autoPaymentWorker := jobs.NewAutoPaymentWorker(autoPaymentRepo, auditLogRepo, executor, webhookUsecase)
	txVerificationWorker := jobs.NewTxVerificationWorker(chainClient, txVerificationRepo, experimentEventRepo)

	// One server per queue so each keeps its own concurrency.
	servers := []struct {
		name        string
		queueName   string
		concurrency int
		handler     asynq.Handler
		taskType    string
	}{
		{"webhooks", queue.QueueWebhooks, cfg.Jobs.WebhookConcurrency, webhookHandler, queue.TypeWebhookDeliver},
		{"auto-payments", queue.QueueAutoPayments, cfg.Jobs.AutoPaymentConcurrency, autoPaymentWorker, queue.TypeAutoPaymentExecute},
		{"tx-verifications", queue.QueueTxVerify, cfg.Jobs.TxVerifyConcurrency, txVerificationWorker, queue.TypeTxVerify},
	}

	running := make([]*asynq.Server, 0, len(servers))
	for _, s := range servers {
		srv := queue.NewServer(redisAddr, redisPassword, redisDB, s.queueName, s.concurrency)
		mux := asynq.NewServeMux()
		mux.Handle(s.taskType, s.handler)

		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("failed to start %s worker: %w", s.name, err)
		}
		log.Printf("🚀 %s worker started (concurrency %d)", s.name, s.concurrency)
		running = append(running, srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("⏹️ Shutting down workers...")
	for _, srv := range running {
		srv.Shutdown()
	}
	logger.Sync()
	return nil
}
