// Package config loads service configuration from an optional YAML file,
// an optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type PaymentsConfig struct {
	PayeeVPA     string        `yaml:"payee_vpa"`
	PayeeName    string        `yaml:"payee_name"`
	Currency     string        `yaml:"currency"`
	FormDelay    time.Duration `yaml:"form_delay"`
	QRGenDelay   time.Duration `yaml:"qr_generate_delay"`
	QRVerify     time.Duration `yaml:"qr_verify_delay"`
	QRExpiry     time.Duration `yaml:"qr_expiry"`
	QRRetention  time.Duration `yaml:"qr_retention"`
	QRRenderer   string        `yaml:"qr_renderer"` // "remote" or "local"
	IDScheme     string        `yaml:"id_scheme"`   // "uuid", "sequence" or "legacy"
	RecentCap    int           `yaml:"recent_cap"`
	JobQueueSize int           `yaml:"job_queue_size"`
}

type RazorpayConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
}

type SalaryConfig struct {
	HRA             float64 `yaml:"hra"`
	DA              float64 `yaml:"da"`
	TA              int64   `yaml:"ta"`
	PF              float64 `yaml:"pf"`
	ProfessionalTax int64   `yaml:"professional_tax"`
	TDS             float64 `yaml:"tds"`
}

type FraudConfig struct {
	LargePaymentThreshold int64         `yaml:"large_payment_threshold"`
	FailedAttempts        int           `yaml:"failed_attempts"`
	FailureWindow         time.Duration `yaml:"failure_window"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	DBName     string `yaml:"db_name"`
	Collection string `yaml:"collection"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

type GCSConfig struct {
	BucketName string `yaml:"bucket_name"`
}

type PubSubConfig struct {
	ProjectID    string `yaml:"project_id"`
	Topic        string `yaml:"topic"`
	Subscription string `yaml:"subscription"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// AppwriteConfig selects the identity provider. Without an endpoint only
// the dev accounts exist. DevMode adds them next to Appwrite for when it
// is unreachable.
type AppwriteConfig struct {
	Endpoint  string `yaml:"endpoint"`
	ProjectID string `yaml:"project_id"`
	APIKey    string `yaml:"api_key"`
	DevMode   bool   `yaml:"dev_mode"`
}

// AppConfig is the root of the configuration tree.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LogConfig      `yaml:"logging"`
	Payments PaymentsConfig `yaml:"payments"`
	Razorpay RazorpayConfig `yaml:"razorpay"`
	Salary   SalaryConfig   `yaml:"salary"`
	Fraud    FraudConfig    `yaml:"fraud"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	GCS      GCSConfig      `yaml:"gcs"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	Notion   NotionConfig   `yaml:"notion"`
	Discord  DiscordConfig  `yaml:"discord"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Appwrite AppwriteConfig `yaml:"appwrite"`
}

// Defaults returns a configuration that runs entirely in memory.
func Defaults() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigin:   "*",
			RateLimitRPS:    10,
			RateLimitBurst:  20,
			SessionTTL:      24 * time.Hour,
		},
		Logging: LogConfig{Level: "info"},
		Payments: PaymentsConfig{
			PayeeVPA:     "edufinflare@upi",
			PayeeName:    "EduFinFlare",
			Currency:     "INR",
			FormDelay:    2 * time.Second,
			QRGenDelay:   1500 * time.Millisecond,
			QRVerify:     2 * time.Second,
			QRRetention:  30 * time.Minute,
			QRRenderer:   "remote",
			IDScheme:     "uuid",
			RecentCap:    5,
			JobQueueSize: 100,
		},
		Salary: SalaryConfig{
			HRA:             0.40,
			DA:              0.10,
			TA:              3000,
			PF:              0.12,
			ProfessionalTax: 200,
			TDS:             0.10,
		},
		Fraud: FraudConfig{
			LargePaymentThreshold: 25000,
			FailedAttempts:        3,
			FailureWindow:         10 * time.Minute,
		},
		Redis:  RedisConfig{TTL: 10 * time.Minute},
		Mongo:  MongoConfig{DBName: "edufin", Collection: "users"},
		Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
	}
}

// Load reads the YAML file at path (optional), then .env (optional), then
// applies environment overrides. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("Load: unmarshal config: %w", err)
		}
	}

	// Missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Load: read .env: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// nolint: funlen
func applyEnv(cfg *AppConfig) {
	cfg.Server.Port = GetEnvOrDefaultAsInt("PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigin = GetEnvOrDefaultAsString("ALLOWED_ORIGIN", cfg.Server.AllowedOrigin)
	cfg.Server.RateLimitRPS = GetEnvOrDefaultAsFloat("RATE_LIMIT_RPS", cfg.Server.RateLimitRPS)
	cfg.Server.RateLimitBurst = GetEnvOrDefaultAsInt("RATE_LIMIT_BURST", cfg.Server.RateLimitBurst)
	cfg.Server.ShutdownTimeout = GetEnvOrDefaultAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.SessionTTL = GetEnvOrDefaultAsDuration("SESSION_TTL", cfg.Server.SessionTTL)

	cfg.Logging.Level = GetEnvOrDefaultAsString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Console = GetEnvOrDefaultAsBool("LOG_CONSOLE", cfg.Logging.Console)

	cfg.Payments.PayeeVPA = GetEnvOrDefaultAsString("PAYEE_VPA", cfg.Payments.PayeeVPA)
	cfg.Payments.PayeeName = GetEnvOrDefaultAsString("PAYEE_NAME", cfg.Payments.PayeeName)
	cfg.Payments.FormDelay = GetEnvOrDefaultAsDuration("PAYMENT_FORM_DELAY", cfg.Payments.FormDelay)
	cfg.Payments.QRGenDelay = GetEnvOrDefaultAsDuration("QR_GENERATE_DELAY", cfg.Payments.QRGenDelay)
	cfg.Payments.QRVerify = GetEnvOrDefaultAsDuration("QR_VERIFY_DELAY", cfg.Payments.QRVerify)
	cfg.Payments.QRExpiry = GetEnvOrDefaultAsDuration("QR_EXPIRY", cfg.Payments.QRExpiry)
	cfg.Payments.QRRetention = GetEnvOrDefaultAsDuration("QR_RETENTION", cfg.Payments.QRRetention)
	cfg.Payments.QRRenderer = GetEnvOrDefaultAsString("QR_RENDERER", cfg.Payments.QRRenderer)
	cfg.Payments.IDScheme = GetEnvOrDefaultAsString("ID_SCHEME", cfg.Payments.IDScheme)

	cfg.Razorpay.KeyID = GetEnvOrDefaultAsString("RAZORPAY_KEY_ID", cfg.Razorpay.KeyID)
	cfg.Razorpay.KeySecret = GetEnvOrDefaultAsString("RAZORPAY_KEY_SECRET", cfg.Razorpay.KeySecret)

	cfg.Fraud.LargePaymentThreshold = GetEnvOrDefaultAsInt64("FRAUD_LARGE_PAYMENT", cfg.Fraud.LargePaymentThreshold)
	cfg.Fraud.FailedAttempts = GetEnvOrDefaultAsInt("FRAUD_FAILED_ATTEMPTS", cfg.Fraud.FailedAttempts)
	cfg.Fraud.FailureWindow = GetEnvOrDefaultAsDuration("FRAUD_FAILURE_WINDOW", cfg.Fraud.FailureWindow)

	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.Mongo.URI = GetEnvOrDefaultAsString("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.DBName = GetEnvOrDefaultAsString("MONGO_DB_NAME", cfg.Mongo.DBName)

	cfg.SQLite.Path = GetEnvOrDefaultAsString("SQLITE_PATH", cfg.SQLite.Path)

	cfg.BigQuery.ProjectID = GetEnvOrDefaultAsString("GOOGLE_CLOUD_PROJECT", cfg.BigQuery.ProjectID)
	cfg.BigQuery.Dataset = GetEnvOrDefaultAsString("BIGQUERY_DATASET", cfg.BigQuery.Dataset)
	cfg.GCS.BucketName = GetEnvOrDefaultAsString("GCS_BUCKET_NAME", cfg.GCS.BucketName)
	cfg.PubSub.ProjectID = GetEnvOrDefaultAsString("PUBSUB_PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.Topic = GetEnvOrDefaultAsString("PUBSUB_TOPIC", cfg.PubSub.Topic)
	cfg.PubSub.Subscription = GetEnvOrDefaultAsString("PUBSUB_SUBSCRIPTION", cfg.PubSub.Subscription)

	cfg.Notion.Token = GetEnvOrDefaultAsString("NOTION_TOKEN", cfg.Notion.Token)
	cfg.Notion.DatabaseID = GetEnvOrDefaultAsString("NOTION_DATABASE_ID", cfg.Notion.DatabaseID)

	cfg.Discord.Token = GetEnvOrDefaultAsString("DISCORD_TOKEN", cfg.Discord.Token)
	cfg.Discord.ChannelID = GetEnvOrDefaultAsString("DISCORD_CHANNEL_ID", cfg.Discord.ChannelID)

	cfg.Gemini.Enabled = GetEnvOrDefaultAsBool("GEMINI_ENABLED", cfg.Gemini.Enabled)
	cfg.Gemini.Model = GetEnvOrDefaultAsString("GEMINI_MODEL", cfg.Gemini.Model)

	cfg.Appwrite.Endpoint = GetEnvOrDefaultAsString("APPWRITE_ENDPOINT", cfg.Appwrite.Endpoint)
	cfg.Appwrite.ProjectID = GetEnvOrDefaultAsString("APPWRITE_PROJECT_ID", cfg.Appwrite.ProjectID)
	cfg.Appwrite.APIKey = GetEnvOrDefaultAsString("APPWRITE_API_KEY", cfg.Appwrite.APIKey)
	cfg.Appwrite.DevMode = GetEnvOrDefaultAsBool("APPWRITE_DEV_MODE", cfg.Appwrite.DevMode)
}

// Validate rejects values that would make the service misbehave at runtime.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("Validate: invalid port %d", c.Server.Port)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("Validate: session_ttl must be positive")
	}
	if c.Payments.RecentCap <= 0 {
		return fmt.Errorf("Validate: recent_cap must be positive, got %d", c.Payments.RecentCap)
	}
	if c.Payments.QRExpiry < 0 || c.Payments.QRRetention < 0 {
		return fmt.Errorf("Validate: qr_expiry and qr_retention must not be negative")
	}
	switch c.Payments.QRRenderer {
	case "remote", "local":
	default:
		return fmt.Errorf("Validate: unknown qr_renderer %q", c.Payments.QRRenderer)
	}
	switch c.Payments.IDScheme {
	case "uuid", "sequence", "legacy":
	default:
		return fmt.Errorf("Validate: unknown id_scheme %q", c.Payments.IDScheme)
	}
	if c.Salary.HRA < 0 || c.Salary.DA < 0 || c.Salary.PF < 0 || c.Salary.TDS < 0 {
		return fmt.Errorf("Validate: salary rates must not be negative")
	}
	return nil
}
