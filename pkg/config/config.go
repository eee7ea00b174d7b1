package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Telegram     TelegramConfig
	Cron         CronConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimeZone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WORKSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"WORKSHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"WORKSHOP_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WORKSHOP_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"WORKSHOP_LOG_WARN_STACK" default:"false"`
	TimeZone     string `envconfig:"WORKSHOP_TIME_ZONE" default:"UTC"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the zone used to bucket repair statistics.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type DBConfig struct {
	DSN    string `envconfig:"WORKSHOP_DB_DSN"`
	Driver string `envconfig:"WORKSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WORKSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"WORKSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WORKSHOP_DB_USER"`
	LegacyPassword string `envconfig:"WORKSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"WORKSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"WORKSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WORKSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WORKSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WORKSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WORKSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"WORKSHOP_REDIS_URL"`
	Address      string        `envconfig:"WORKSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"WORKSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"WORKSHOP_REDIS_DB" default:"0"`
	Namespace    string        `envconfig:"WORKSHOP_REDIS_NAMESPACE" default:"workshop"`
	PoolSize     int           `envconfig:"WORKSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WORKSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WORKSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WORKSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WORKSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool          `envconfig:"WORKSHOP_AUTO_MIGRATE" default:"false"`
	Idempotency    bool          `envconfig:"WORKSHOP_IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyTTL time.Duration `envconfig:"WORKSHOP_IDEMPOTENCY_TTL" default:"24h"`
	NotifyOnStatus bool          `envconfig:"WORKSHOP_NOTIFY_ON_STATUS" default:"true"`
}

type TelegramConfig struct {
	BotToken string        `envconfig:"WORKSHOP_TELEGRAM_BOT_TOKEN"`
	ChatID   string        `envconfig:"WORKSHOP_TELEGRAM_CHAT_ID"`
	BaseURL  string        `envconfig:"WORKSHOP_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	Timeout  time.Duration `envconfig:"WORKSHOP_TELEGRAM_TIMEOUT" default:"5s"`
}

// Enabled reports whether both bot token and chat id are present.
func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.ChatID) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"WORKSHOP_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"WORKSHOP_CRON_LOCK_TTL" default:"10m"`
	LowStock bool          `envconfig:"WORKSHOP_CRON_LOW_STOCK_ENABLED" default:"true"`
	// AlertWindow suppresses repeats of an identical low-stock summary.
	AlertWindow time.Duration `envconfig:"WORKSHOP_CRON_ALERT_WINDOW" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"WORKSHOP_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
