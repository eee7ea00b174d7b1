package config

const (
	EnvPrefix = "WORKSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv       = "WORKSHOP_APP_ENV"
	EnvPort         = "WORKSHOP_APP_PORT"
	EnvLogLevel     = "WORKSHOP_LOG_LEVEL"
	EnvLogFormat    = "WORKSHOP_LOG_FORMAT"
	EnvLogWarnStack = "WORKSHOP_LOG_WARN_STACK"
	EnvTimeZone     = "WORKSHOP_TIME_ZONE"

	EnvDBDSN      = "WORKSHOP_DB_DSN"
	EnvDBDriver   = "WORKSHOP_DB_DRIVER"
	EnvDBHost     = "WORKSHOP_DB_HOST"
	EnvDBPort     = "WORKSHOP_DB_PORT"
	EnvDBUser     = "WORKSHOP_DB_USER"
	EnvDBPassword = "WORKSHOP_DB_PASSWORD"
	EnvDBName     = "WORKSHOP_DB_NAME"
	EnvDBSSLMode  = "WORKSHOP_DB_SSLMODE"

	EnvRedisURL       = "WORKSHOP_REDIS_URL"
	EnvRedisAddr      = "WORKSHOP_REDIS_ADDR"
	EnvRedisNamespace = "WORKSHOP_REDIS_NAMESPACE"

	EnvAutoMigrate = "WORKSHOP_AUTO_MIGRATE"

	EnvTelegramBotToken = "WORKSHOP_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "WORKSHOP_TELEGRAM_CHAT_ID"
	EnvTelegramBaseURL  = "WORKSHOP_TELEGRAM_BASE_URL"
	EnvTelegramTimeout  = "WORKSHOP_TELEGRAM_TIMEOUT"

	EnvCronInterval = "WORKSHOP_CRON_INTERVAL"
	EnvCronLockTTL  = "WORKSHOP_CRON_LOCK_TTL"

	EnvCORSAllowedOrigins = "WORKSHOP_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
