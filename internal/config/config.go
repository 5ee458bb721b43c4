package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/eshen7/frc-marketplace/pkg/config"
	"github.com/eshen7/frc-marketplace/pkg/database"
	pkglog "github.com/eshen7/frc-marketplace/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Database  database.Config
	Broker    BrokerConfig
	Notify    NotifyConfig
	Log       pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	DedupCapacity  int           `mapstructure:"dedup_capacity"`
}

type BrokerConfig struct {
	// Mode selects the broker implementation: "memory" for a single
	// instance, "redis" for cross-instance fan-out.
	Mode          string
	RedisAddress  string `mapstructure:"redis_address"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type NotifyConfig struct {
	Enabled      bool
	QueueSize    int           `mapstructure:"queue_size"`
	Workers      int           `mapstructure:"workers"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	KafkaBrokers string        `mapstructure:"kafka_brokers"`
	KafkaTopic   string        `mapstructure:"kafka_topic"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.dedup_capacity", 512)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "marketplace.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("broker.mode", "memory")
	v.SetDefault("broker.redis_address", "localhost:6379")
	v.SetDefault("broker.redis_password", "")
	v.SetDefault("broker.redis_db", 0)
	v.SetDefault("broker.channel_prefix", "realtime:groups")
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.queue_size", 1024)
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.retry_backoff", "1s")
	v.SetDefault("notify.kafka_brokers", "localhost:9092")
	v.SetDefault("notify.kafka_topic", "marketplace-notifications")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "realtime-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("broker.mode", "BROKER_MODE")
	v.BindEnv("broker.redis_address", "REDIS_ADDRESS")
	v.BindEnv("broker.redis_password", "REDIS_PASSWORD")
	v.BindEnv("notify.kafka_brokers", "KAFKA_BROKERS")
	v.BindEnv("notify.kafka_topic", "KAFKA_TOPIC")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Notify.RetryBackoff = parseDuration(v, "notify.retry_backoff", time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
