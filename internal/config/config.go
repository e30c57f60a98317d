package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings. It is built once at process start
// and passed explicitly to the components that need it.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Email        EmailConfig
	Storage      StorageConfig
	Verification VerificationConfig
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig contains the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig contains unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of host:port addresses, used for all modes.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative single address for "single" mode, used when Addrs is
	// empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name, sentinel mode only.
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: maximum reconnect attempts (-1 = unlimited). Default 0.
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff / MaxRetryBackoff: retry interval bounds, milliseconds.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig contains session token settings.
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// EmailConfig contains outbound mail settings.
type EmailConfig struct {
	// Provider: "resend" or "noop". Noop logs instead of sending.
	Provider     string `mapstructure:"provider"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`

	// ResetBaseURL is the client page that consumes reset tokens; the token
	// is appended as a path segment.
	ResetBaseURL string `mapstructure:"reset_base_url"`
}

// StorageConfig selects the file storage backend for covers and book files.
type StorageConfig struct {
	// Backend: "local" or "s3".
	Backend string `mapstructure:"backend"`

	// LocalDir is the root for the local backend (covers/ and books/ are
	// created underneath).
	LocalDir string `mapstructure:"local_dir"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config contains the S3 backend settings. Endpoint is optional and allows
// MinIO-style deployments.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// VerificationConfig contains the OTP and reset-token lifecycle settings.
type VerificationConfig struct {
	// OTPTTLMinutes: validity window of a signup code. Default 10.
	OTPTTLMinutes int `mapstructure:"otp_ttl_minutes"`

	// ResetTTLMinutes: validity window of a password-reset token. Default 60.
	ResetTTLMinutes int `mapstructure:"reset_ttl_minutes"`
}

// OTPTTL returns the signup code TTL as a duration.
func (v *VerificationConfig) OTPTTL() time.Duration {
	minutes := v.OTPTTLMinutes
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

// ResetTTL returns the reset token TTL as a duration.
func (v *VerificationConfig) ResetTTL() time.Duration {
	minutes := v.ResetTTLMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from an optional file plus explicitly bound
// environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // fresh instance, no global viper state

	// Bind environment variables explicitly per key.
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")
	vip.BindEnv("email.reset_base_url", "EMAIL_RESET_BASE_URL")

	vip.BindEnv("storage.backend", "STORAGE_BACKEND")
	vip.BindEnv("storage.local_dir", "STORAGE_LOCAL_DIR")
	vip.BindEnv("storage.s3.region", "STORAGE_S3_REGION")
	vip.BindEnv("storage.s3.bucket", "STORAGE_S3_BUCKET")
	vip.BindEnv("storage.s3.endpoint", "STORAGE_S3_ENDPOINT")
	vip.BindEnv("storage.s3.access_key", "STORAGE_S3_ACCESS_KEY")
	vip.BindEnv("storage.s3.secret_key", "STORAGE_S3_SECRET_KEY")

	vip.BindEnv("verification.otp_ttl_minutes", "VERIFICATION_OTP_TTL_MINUTES")
	vip.BindEnv("verification.reset_ttl_minutes", "VERIFICATION_RESET_TTL_MINUTES")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Missing file is fine, env vars cover everything.
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("config file '%s' not found, using environment variables/defaults", configPath)
			} else {
				log.Printf("warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- loaded configuration ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Email Provider: %s", cfg.Email.Provider)
		log.Printf("Storage Backend: %s", cfg.Storage.Backend)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("----------------------------")
	}

	// Required values.
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Email.Provider == "resend" && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("resend email provider requires an API key (check RESEND_API_KEY env var)")
	}
	if cfg.Storage.Backend == "s3" && cfg.Storage.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 storage backend requires a bucket (check STORAGE_S3_BUCKET env var)")
	}

	return &cfg, nil
}
