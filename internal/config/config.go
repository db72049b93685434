package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	Adaptive  AdaptiveConfig  `mapstructure:"adaptive"`
	Guidance  GuidanceConfig  `mapstructure:"guidance"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// SessionConfig 活动会话的运行参数。SnapshotTTLMinutes 是 Redis 快照的
// 存活时间，应大于最长的试卷限时。
type SessionConfig struct {
	SnapshotTTLMinutes int `mapstructure:"snapshot_ttl_minutes"`
}

// AdaptiveConfig 自适应出题的三档阈值，见 exam.AdaptivePolicy
type AdaptiveConfig struct {
	StrongRatio float64 `mapstructure:"strong_ratio"`
	WeakRatio   float64 `mapstructure:"weak_ratio"`
	SkipStep    int     `mapstructure:"skip_step"`
}

// GuidanceConfig 建议引擎的分数档位与走势阈值，见 guidance.Policy
type GuidanceConfig struct {
	BandPoor          int     `mapstructure:"band_poor"`
	BandFair          int     `mapstructure:"band_fair"`
	BandGood          int     `mapstructure:"band_good"`
	FocusTopics       int     `mapstructure:"focus_topics"`
	TrendWindow       int     `mapstructure:"trend_window"`
	TrendDelta        float64 `mapstructure:"trend_delta"`
	WeakSubjectCutoff float64 `mapstructure:"weak_subject_cutoff"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EXAM_PREP")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// 策略阈值默认值：自适应 8/10 判强、4/10 判弱；建议引擎 40/60/80 档位
	viper.SetDefault("session.snapshot_ttl_minutes", 240)
	viper.SetDefault("adaptive.strong_ratio", 0.8)
	viper.SetDefault("adaptive.weak_ratio", 0.4)
	viper.SetDefault("adaptive.skip_step", 2)
	viper.SetDefault("guidance.band_poor", 40)
	viper.SetDefault("guidance.band_fair", 60)
	viper.SetDefault("guidance.band_good", 80)
	viper.SetDefault("guidance.focus_topics", 3)
	viper.SetDefault("guidance.trend_window", 5)
	viper.SetDefault("guidance.trend_delta", 5)
	viper.SetDefault("guidance.weak_subject_cutoff", 60)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
