package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	MQTTBroker       string `mapstructure:"MQTT_BROKER"`
	MQTTTopic        string `mapstructure:"MQTT_TOPIC"`
	MQTTClientPrefix string `mapstructure:"MQTT_CLIENT_PREFIX"`

	LogFile    string `mapstructure:"LOG_FILE"`
	ResetCache bool   `mapstructure:"RESET_CACHE"`

	RedisBackupInterval    time.Duration `mapstructure:"REDIS_BACKUP_INTERVAL"`
	PostgresBackupInterval time.Duration `mapstructure:"POSTGRES_BACKUP_INTERVAL"`
}

// LoadConfig reads .env.<APP_ENV> from dir and overlays environment variables
func LoadConfig(dir string) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()

	// Set default values
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("MQTT_BROKER", "")
	v.SetDefault("MQTT_TOPIC", DefaultMQTTTopic)
	v.SetDefault("MQTT_CLIENT_PREFIX", "obstarget")
	v.SetDefault("LOG_FILE", "obstarget.log")
	v.SetDefault("RESET_CACHE", false)
	v.SetDefault("REDIS_BACKUP_INTERVAL", RedisBackupInterval)
	v.SetDefault("POSTGRES_BACKUP_INTERVAL", PostgresBackupInterval)

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	if c.RedisBackupInterval <= 0 || c.PostgresBackupInterval <= 0 {
		return c, fmt.Errorf("backup intervals must be positive (redis=%v postgres=%v)",
			c.RedisBackupInterval, c.PostgresBackupInterval)
	}
	return c, nil
}
