package config

// EnvPrefix scopes all environment variables consumed by Load.
const EnvPrefix = "stockroom"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "STOCKROOM_APP_ENV"
	EnvPort       = "STOCKROOM_APP_PORT"
	EnvDBDSN      = "STOCKROOM_DB_DSN"
	EnvDBHost     = "STOCKROOM_DB_HOST"
	EnvDBUser     = "STOCKROOM_DB_USER"
	EnvDBName     = "STOCKROOM_DB_NAME"
	EnvRedisURL   = "STOCKROOM_REDIS_URL"
	EnvJWTSecret  = "STOCKROOM_JWT_SECRET"
	EnvJWTIssuer  = "STOCKROOM_JWT_ISSUER"
	EnvJWTExpMins = "STOCKROOM_JWT_EXPIRATION_MINUTES"

	EnvPubSubOrdersTopic = "STOCKROOM_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "STOCKROOM_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
