package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "AGROSCAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	UploadsModeLocal = "local"
	UploadsModeGCS   = "gcs"
)

const (
	EnvAppEnv   = "AGROSCAN_APP_ENV"
	EnvPort     = "AGROSCAN_APP_PORT"
	EnvDBDSN    = "AGROSCAN_DB_DSN"
	EnvDBHost   = "AGROSCAN_DB_HOST"
	EnvDBUser   = "AGROSCAN_DB_USER"
	EnvDBName   = "AGROSCAN_DB_NAME"
	EnvRedisURL = "AGROSCAN_REDIS_URL"
	EnvJWTSecret = "AGROSCAN_JWT_SECRET"
	EnvJWTIssuer = "AGROSCAN_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
