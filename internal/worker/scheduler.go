package worker

import (
	"context"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"obstarget/internal/config"
)

const MemoryStatsInterval = 30 * time.Second

// StartAllWorkers starts all background workers in g. They stop when ctx is cancelled.
func StartAllWorkers(ctx context.Context, g *errgroup.Group, p Persister, cfg config.Config) {
	log.Println("Starting all workers...")

	g.Go(func() error { return RunRedisBackupWorker(ctx, p, cfg.RedisBackupInterval) })
	g.Go(func() error { return RunPostgresBackupWorker(ctx, p, cfg.PostgresBackupInterval) })
	g.Go(func() error { return RunMemoryStatsWorker(ctx, MemoryStatsInterval) })

	log.Println("All workers started")
}

// RunMemoryStatsWorker logs heap usage every interval
func RunMemoryStatsWorker(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		case <-ctx.Done():
			return nil
		}
	}
}
