package config

import "time"

// Worker intervals
const (
	// RedisBackupInterval defines how often to save changed targets to Redis
	RedisBackupInterval = 10 * time.Second

	// PostgresBackupInterval defines how often to save all targets to PostgreSQL
	PostgresBackupInterval = 60 * time.Second
)

// DefaultMQTTTopic is where the scheduler publishes target records
const DefaultMQTTTopic = "scheduler/target"
