package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"filevault/internal/modules/files"
	"filevault/internal/shared/infrastructure/config"
	"filevault/internal/shared/infrastructure/database"
	"filevault/internal/shared/infrastructure/queue"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	storageProcessor, deletionProcessor := files.NewProcessors(db, logger)

	storageQueue := queue.New(redisClient, queue.StorageEventsQueue, cfg.Queue.MaxAttempts)
	userQueue := queue.New(redisClient, queue.UserEventsQueue, cfg.Queue.MaxAttempts)

	consumers := []*queue.Consumer{
		queue.NewConsumer(storageQueue, storageProcessor.Handle, cfg.Queue.Concurrency, logger),
		queue.NewConsumer(userQueue, deletionProcessor.Handle, cfg.Queue.Concurrency, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info("Worker shutting down", "signal", sig.String())
		cancel()
	}()

	logger.Info("Worker starting",
		"queues", []string{storageQueue.Name(), userQueue.Name()},
		"concurrency", cfg.Queue.Concurrency)

	var wg sync.WaitGroup
	for _, consumer := range consumers {
		wg.Add(1)
		go func(c *queue.Consumer) {
			defer wg.Done()
			c.Run(ctx)
		}(consumer)
	}
	wg.Wait()

	logger.Info("Worker stopped")
}
