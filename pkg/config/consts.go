package config

const (
	EnvPrefix = "INVENTORY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "INVENTORY_APP_ENV"
	EnvPort                   = "INVENTORY_APP_PORT"
	EnvLogLevel               = "INVENTORY_LOG_LEVEL"
	EnvDBDSN                  = "INVENTORY_DB_DSN"
	EnvDBDriver               = "INVENTORY_DB_DRIVER"
	EnvDBHost                 = "INVENTORY_DB_HOST"
	EnvDBPort                 = "INVENTORY_DB_PORT"
	EnvDBUser                 = "INVENTORY_DB_USER"
	EnvDBPassword             = "INVENTORY_DB_PASSWORD"
	EnvDBName                 = "INVENTORY_DB_NAME"
	EnvDBSSLMode              = "INVENTORY_DB_SSLMODE"
	EnvRedisURL               = "INVENTORY_REDIS_URL"
	EnvJWTSecret              = "INVENTORY_JWT_SECRET"
	EnvJWTIssuer              = "INVENTORY_JWT_ISSUER"
	EnvJWTExpMins             = "INVENTORY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "INVENTORY_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "INVENTORY_USE_SQLITE"
	EnvDefaultReorderLevel    = "INVENTORY_DEFAULT_REORDER_LEVEL"
	EnvDashboardCacheTTL      = "INVENTORY_DASHBOARD_CACHE_TTL"
	EnvCronInterval           = "INVENTORY_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
