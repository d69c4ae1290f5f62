package config

const (
	EnvPrefix = "DISTRO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "DISTRO_APP_ENV"
	EnvPort       = "DISTRO_APP_PORT"
	EnvLogLevel   = "DISTRO_LOG_LEVEL"
	EnvDBDSN      = "DISTRO_DB_DSN"
	EnvDBDriver   = "DISTRO_DB_DRIVER"
	EnvDBHost     = "DISTRO_DB_HOST"
	EnvDBUser     = "DISTRO_DB_USER"
	EnvDBPassword = "DISTRO_DB_PASSWORD"
	EnvDBName     = "DISTRO_DB_NAME"
	EnvRedisURL   = "DISTRO_REDIS_URL"
	EnvJWTSecret  = "DISTRO_JWT_SECRET"
	EnvJWTIssuer  = "DISTRO_JWT_ISSUER"
	EnvJWTExpMins = "DISTRO_JWT_EXPIRATION_MINUTES"
	EnvCORSOrigin = "DISTRO_CORS_ALLOWED_ORIGINS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
