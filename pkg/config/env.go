package config

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "COLDRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "COLDRACK_APP_ENV"
	EnvPort     = "COLDRACK_APP_PORT"
	EnvLogLevel = "COLDRACK_LOG_LEVEL"

	EnvDBDSN      = "COLDRACK_DB_DSN"
	EnvDBHost     = "COLDRACK_DB_HOST"
	EnvDBPort     = "COLDRACK_DB_PORT"
	EnvDBUser     = "COLDRACK_DB_USER"
	EnvDBPassword = "COLDRACK_DB_PASSWORD"
	EnvDBName     = "COLDRACK_DB_NAME"

	EnvRedisURL = "COLDRACK_REDIS_URL"

	EnvJWTSecret              = "COLDRACK_JWT_SECRET"
	EnvJWTIssuer              = "COLDRACK_JWT_ISSUER"
	EnvJWTExpMins             = "COLDRACK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "COLDRACK_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "COLDRACK_GCP_PROJECT_ID"

	EnvPubSubChangesTopic = "COLDRACK_PUBSUB_CHANGES_TOPIC"
	EnvPubSubChangesSub   = "COLDRACK_PUBSUB_CHANGES_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
