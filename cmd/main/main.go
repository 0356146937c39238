package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"obstarget/internal/api"
	"obstarget/internal/config"
	"obstarget/internal/postgres"
	"obstarget/internal/redis"
	"obstarget/internal/service/target"
	"obstarget/internal/topic"
	"obstarget/internal/util"
	"obstarget/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

// run returns the exit code; deferred cleanup finishes before main exits
func run() int {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	setupLogging(cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	targetService := initializeServices(ctx, cfg)
	defer closeConnections()

	g, gctx := errgroup.WithContext(ctx)

	worker.StartAllWorkers(gctx, g, targetService, cfg)

	if cfg.MQTTBroker != "" {
		sub := topic.NewSubscriber(cfg.MQTTBroker, util.ClientID(cfg.MQTTClientPrefix), cfg.MQTTTopic, targetService)
		g.Go(func() error { return sub.Run(gctx) })
	} else {
		log.Println("MQTT_BROKER not set, topic ingestion disabled")
	}

	g.Go(func() error { return runAPIServer(gctx, cfg, targetService) })

	return exitCode(g.Wait())
}

// exitCode maps the error that stopped the process group to an exit status
func exitCode(err error) int {
	if err != nil {
		log.Printf("Shutting down after error: %v", err)
		return 1
	}
	log.Println("Shutdown complete")
	return 0
}

func setupLogging(path string) {
	// Set up logging to file and terminal
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

// initializeServices connects the configured backends and loads the stored targets
func initializeServices(ctx context.Context, cfg config.Config) *target.TargetService {
	var repo target.Repository
	if cfg.DBUrl != "" {
		db, err := postgres.Init(cfg.DBUrl)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		repo = postgres.NewTargetRepository(db)
	} else {
		log.Println("DB_URL not set, PostgreSQL persistence disabled")
	}

	var cache target.Cache
	if cfg.RedisUrl != "" {
		client, err := redis.Init(ctx, cfg.RedisUrl)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		targetCache := redis.NewTargetCache(client)

		if cfg.ResetCache {
			n, err := targetCache.DeleteAll(ctx)
			if err != nil {
				log.Fatalf("Failed to reset Redis cache: %v", err)
			}
			log.Printf("RESET_CACHE: deleted %d cached targets", n)
		}
		cache = targetCache
	} else {
		log.Println("REDIS_URL not set, Redis snapshots disabled")
	}

	targetService := target.NewTargetService(repo, cache)
	if err := targetService.InitService(ctx); err != nil {
		log.Fatalf("Failed to initialize target service: %v", err)
	}

	return targetService
}

func runAPIServer(ctx context.Context, cfg config.Config, targetService *target.TargetService) error {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	info := map[string]string{
		"port":      cfg.Port,
		"mqttTopic": cfg.MQTTTopic,
	}
	api.SetupRouter(r, targetService, info)

	srv := &http.Server{Addr: cfg.Port, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutdown signal received, stopping API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("PostgreSQL and Redis connections closed")
}
