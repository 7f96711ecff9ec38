package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ARTISANPRO_APP_ENV"
	EnvPort     = "ARTISANPRO_APP_PORT"
	EnvLogLevel = "ARTISANPRO_LOG_LEVEL"

	EnvDBDSN    = "ARTISANPRO_DB_DSN"
	EnvDBDriver = "ARTISANPRO_DB_DRIVER"
	EnvDBHost   = "ARTISANPRO_DB_HOST"
	EnvDBUser   = "ARTISANPRO_DB_USER"
	EnvDBName   = "ARTISANPRO_DB_NAME"

	EnvRedisURL = "ARTISANPRO_REDIS_URL"

	EnvJWTSecret = "ARTISANPRO_JWT_SECRET"
	EnvJWTIssuer = "ARTISANPRO_JWT_ISSUER"

	EnvBookingAcceptTimeout = "ARTISANPRO_BOOKING_ACCEPT_TIMEOUT"
	EnvNegotiationMaxRounds = "ARTISANPRO_NEGOTIATION_MAX_ROUNDS"
	EnvNegotiationTTL       = "ARTISANPRO_NEGOTIATION_TTL"
	EnvEscrowAutoRelease    = "ARTISANPRO_ESCROW_AUTO_RELEASE_AFTER"
	EnvPlatformFeePercent   = "ARTISANPRO_PLATFORM_FEE_PERCENT"

	EnvPaystackSecretKey = "ARTISANPRO_PAYSTACK_SECRET_KEY"

	EnvGCPProjectID           = "ARTISANPRO_GCP_PROJECT_ID"
	EnvPubSubBookingTopic     = "ARTISANPRO_PUBSUB_BOOKING_TOPIC"
	EnvPubSubNotificationSub  = "ARTISANPRO_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvOutboxPublishBatchSize = "ARTISANPRO_OUTBOX_PUBLISH_BATCH_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
