package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so
// the prefix only matters for unnamed fields.
const EnvPrefix = "HOMESTEAD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "HOMESTEAD_APP_ENV"
	EnvPort       = "HOMESTEAD_APP_PORT"
	EnvDBDSN      = "HOMESTEAD_DB_DSN"
	EnvDBHost     = "HOMESTEAD_DB_HOST"
	EnvDBUser     = "HOMESTEAD_DB_USER"
	EnvDBName     = "HOMESTEAD_DB_NAME"
	EnvRedisURL   = "HOMESTEAD_REDIS_URL"
	EnvJWTSecret  = "HOMESTEAD_JWT_SECRET"
	EnvJWTIssuer  = "HOMESTEAD_JWT_ISSUER"
	EnvJWTExpMins = "HOMESTEAD_JWT_EXPIRATION_MINUTES"
	EnvGeminiKey  = "HOMESTEAD_GEMINI_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
