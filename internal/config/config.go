package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevSessionSecret is the signing secret used when SESSION_SECRET is unset outside production.
const DevSessionSecret = "dev-only-change-me"

const envProduction = "production"

// Config aggregates runtime configuration for the service.
type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Session     SessionConfig
	OTP         OTPConfig
	Mail        MailConfig
	Tracing     TracingConfig
	Submissions SubmissionsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	EnableTracing  bool
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig defines the signed session cookie.
type SessionConfig struct {
	Secret     string
	TTLSeconds int
	CookieName string
	BcryptCost int

	// UsingDevSecret is set by Validate when the development secret was substituted.
	UsingDevSecret bool
}

// OTPConfig defines the one-time email code flow.
type OTPConfig struct {
	Digits          int
	TTLMinutes      int
	Store           string
	DevFallback     bool
	SendLimit       int
	SendLimitWindow int
}

// MailConfig holds the transactional email provider settings.
type MailConfig struct {
	ResendAPIKey   string
	Endpoint       string
	From           string
	TimeoutSeconds int
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled       bool
	CollectorAddr string
	SampleRatio   float64
}

// SubmissionsConfig bounds task submission payloads.
type SubmissionsConfig struct {
	MaxPayloadBytes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnv("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLE_RATIO: %w", err)
	}
	tracingEnabled := getEnvAsBool("OTEL_ENABLED", false)
	appEnv := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "pharmat-audit"),
			Env:                   appEnv,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			EnableTracing:  tracingEnabled,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			TTLSeconds: getEnvAsInt("SESSION_TTL_SECONDS", 12*60*60),
			CookieName: getEnv("SESSION_COOKIE_NAME", "pharmat_session"),
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		OTP: OTPConfig{
			Digits:          getEnvAsInt("OTP_DIGITS", 6),
			TTLMinutes:      getEnvAsInt("OTP_TTL_MINUTES", 10),
			Store:           strings.ToLower(getEnv("OTP_STORE", "postgres")),
			DevFallback:     getEnvAsBool("OTP_DEV_FALLBACK", !strings.EqualFold(appEnv, envProduction)),
			SendLimit:       getEnvAsInt("OTP_SEND_LIMIT", 5),
			SendLimitWindow: getEnvAsInt("OTP_SEND_LIMIT_WINDOW_MINUTES", 10),
		},
		Mail: MailConfig{
			ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
			Endpoint:       getEnv("RESEND_ENDPOINT", "https://api.resend.com/emails"),
			From:           getEnv("MAIL_FROM", "PharmaT Audit <no-reply@pharmat.example>"),
			TimeoutSeconds: getEnvAsInt("MAIL_TIMEOUT_SECONDS", 10),
		},
		Tracing: TracingConfig{
			Enabled:       tracingEnabled,
			CollectorAddr: getEnv("OTEL_COLLECTOR_ADDR", "localhost:4317"),
			SampleRatio:   sampleRatio,
		},
		Submissions: SubmissionsConfig{
			MaxPayloadBytes: getEnvAsInt("SUBMISSION_MAX_PAYLOAD_BYTES", 4*1024*1024),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces startup invariants. Outside production it substitutes the
// development session secret when none is configured.
func (c *Config) Validate() error {
	var errs []error

	if c.App.IsProduction() {
		if c.Session.Secret == "" || c.Session.Secret == DevSessionSecret {
			errs = append(errs, errors.New("SESSION_SECRET must be set to a non-default value in production"))
		}
		if c.OTP.DevFallback {
			errs = append(errs, errors.New("OTP_DEV_FALLBACK must be disabled in production"))
		}
	} else if c.Session.Secret == "" {
		c.Session.Secret = DevSessionSecret
		c.Session.UsingDevSecret = true
	}

	if c.Session.TTLSeconds <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_SECONDS must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 9 {
		errs = append(errs, fmt.Errorf("OTP_DIGITS must be between 4 and 9, got %d", c.OTP.Digits))
	}
	if c.OTP.TTLMinutes <= 0 {
		errs = append(errs, errors.New("OTP_TTL_MINUTES must be positive"))
	}
	switch c.OTP.Store {
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("OTP_STORE must be postgres or redis, got %q", c.OTP.Store))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the deployment is flagged as production.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, envProduction)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// TTL returns how long an issued code stays valid.
func (o OTPConfig) TTL() time.Duration {
	return time.Duration(o.TTLMinutes) * time.Minute
}

// Window returns the send limiter window.
func (o OTPConfig) Window() time.Duration {
	if o.SendLimitWindow <= 0 {
		return o.TTL()
	}
	return time.Duration(o.SendLimitWindow) * time.Minute
}

// Timeout returns the provider request timeout.
func (m MailConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
