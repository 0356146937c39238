package worker

import (
	"context"
	"log"
	"time"
)

const finalSaveTimeout = 30 * time.Second

// Persister saves the in-memory targets to the backing stores
type Persister interface {
	SaveDirtyTargetsToRedis(ctx context.Context) error
	SaveAllTargetsToPG(ctx context.Context) error
}

// RunRedisBackupWorker saves changed targets to Redis every interval
func RunRedisBackupWorker(ctx context.Context, p Persister, interval time.Duration) error {
	return runTicker(ctx, "Redis backup", interval, p.SaveDirtyTargetsToRedis)
}

// RunPostgresBackupWorker saves all targets to PostgreSQL every interval
func RunPostgresBackupWorker(ctx context.Context, p Persister, interval time.Duration) error {
	return runTicker(ctx, "PostgreSQL backup", interval, p.SaveAllTargetsToPG)
}

// runTicker calls fn on every tick until ctx is cancelled, then once more
// so nothing written since the last tick is lost
func runTicker(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("%s worker started with interval: %v", name, interval)

	for {
		select {
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("%s worker: %v", name, err)
			}
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			err := fn(saveCtx)
			cancel()
			if err != nil {
				log.Printf("%s worker: final save failed: %v", name, err)
			}
			log.Printf("%s worker stopped", name)
			return nil
		}
	}
}
