package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"grouporder-workers/config"
	"grouporder-workers/internal/app"
	"grouporder-workers/internal/clickhouse"
	"grouporder-workers/internal/postgres"
	"grouporder-workers/internal/rabbitmq"
	"grouporder-workers/internal/workers"
	"grouporder-workers/pkg/logger"
)

func main() {
	// Initialize logger
	logger.Init()
	log.Println("🚀 Starting Group Order Workers...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("✓ Configuration loaded")
	log.Printf("  - RabbitMQ: %s", cfg.RabbitMQ.URL)
	log.Printf("  - ClickHouse: %s:%d/%s", cfg.ClickHouse.Host, cfg.ClickHouse.Port, cfg.ClickHouse.Database)
	log.Printf("  - Postgres: %s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	log.Printf("  - Uber Eats: %s", cfg.UberEats.BaseURL)

	// Connect to Postgres
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgClient.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = pgClient.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to migrate Postgres: %v", err)
	}
	log.Println("✓ Connected to Postgres")

	// Connect to ClickHouse
	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = chClient.EnsureSchema(schemaCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to prepare ClickHouse schema: %v", err)
	}
	log.Println("✓ Connected to ClickHouse")

	// RabbitMQ
	lookupConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create lookup consumer: %v", err)
	}
	defer lookupConsumer.Close()

	factConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create fact consumer: %v", err)
	}
	defer factConsumer.Close()

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()
	log.Println("✓ Connected to RabbitMQ")

	service, _ := app.NewLookupService(cfg)

	lookupWorker := workers.NewLookupWorker(lookupConsumer, publisher, pgClient, service,
		cfg.RabbitMQ.LookupQueue, cfg.RabbitMQ.ExtractedQueue, cfg.UberEats.LookupTimeout)
	factWorker := workers.NewFactWorker(factConsumer, chClient, pgClient, cfg.RabbitMQ.ExtractedQueue)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := lookupWorker.Start(); err != nil {
			log.Printf("Lookup worker error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := factWorker.Start(); err != nil {
			log.Printf("Fact worker error: %v", err)
		}
	}()

	log.Println("✓ All workers started successfully")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down workers...")
	// Closing the channels ends the consume loops
	lookupConsumer.Close()
	factConsumer.Close()
	wg.Wait()
	log.Println("✓ Workers stopped gracefully")
}
