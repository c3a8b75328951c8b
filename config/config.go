package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Auth         AuthConfig         `yaml:"auth"`
	Database     DatabaseConfig     `yaml:"database"`
	Push         PushConfig         `yaml:"push"`
	Notification NotificationConfig `yaml:"notification"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"` // websocket Origin allowlist; empty allows any
}

// AuthConfig holds the secret used to verify session tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// NotificationConfig tunes the delivery dispatcher.
type NotificationConfig struct {
	PushTimeoutMillis int           `yaml:"push_timeout_ms"`
	PushTimeout       time.Duration `yaml:"-"`
	FanoutConcurrency int           `yaml:"fanout_concurrency"`
}

// WebSocketConfig holds keepalive and limit settings for live connections.
type WebSocketConfig struct {
	PingIntervalSeconds int           `yaml:"ping_interval_seconds"`
	PongWaitSeconds     int           `yaml:"pong_wait_seconds"`
	WriteTimeoutSeconds int           `yaml:"write_timeout_seconds"`
	ReadLimitBytes      int64         `yaml:"read_limit_bytes"`
	PingInterval        time.Duration `yaml:"-"`
	PongWait            time.Duration `yaml:"-"`
	WriteTimeout        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// Load reads the configuration from the given path. DATABASE_URL and
// SECRET_KEY from the environment take precedence over the file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with working defaults and derives the
// duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.DSN == "" {
		log.Printf("database.dsn is not set; defaulting to sqlite:tasks.db")
		cfg.Database.DSN = "sqlite:tasks.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Notification.PushTimeoutMillis <= 0 {
		cfg.Notification.PushTimeoutMillis = 5000
	}
	cfg.Notification.PushTimeout = time.Duration(cfg.Notification.PushTimeoutMillis) * time.Millisecond
	if cfg.Notification.FanoutConcurrency <= 0 {
		cfg.Notification.FanoutConcurrency = 8
	}

	if cfg.WebSocket.PongWaitSeconds <= 0 {
		cfg.WebSocket.PongWaitSeconds = 60
	}
	if cfg.WebSocket.PingIntervalSeconds <= 0 || cfg.WebSocket.PingIntervalSeconds >= cfg.WebSocket.PongWaitSeconds {
		// Pings must go out before the peer's pong deadline lapses.
		cfg.WebSocket.PingIntervalSeconds = cfg.WebSocket.PongWaitSeconds * 9 / 10
	}
	if cfg.WebSocket.WriteTimeoutSeconds <= 0 {
		cfg.WebSocket.WriteTimeoutSeconds = 10
	}
	if cfg.WebSocket.ReadLimitBytes <= 0 {
		cfg.WebSocket.ReadLimitBytes = 4096
	}
	cfg.WebSocket.PingInterval = time.Duration(cfg.WebSocket.PingIntervalSeconds) * time.Second
	cfg.WebSocket.PongWait = time.Duration(cfg.WebSocket.PongWaitSeconds) * time.Second
	cfg.WebSocket.WriteTimeout = time.Duration(cfg.WebSocket.WriteTimeoutSeconds) * time.Second

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = cfg.WorkerPool.Size * 16
	}
}
