package config

const (
	EnvPrefix = "FABGUARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv           = "FABGUARD_APP_ENV"
	EnvPort             = "FABGUARD_APP_PORT"
	EnvDBDSN            = "FABGUARD_DB_DSN"
	EnvDBDriver         = "FABGUARD_DB_DRIVER"
	EnvDBHost           = "FABGUARD_DB_HOST"
	EnvDBUser           = "FABGUARD_DB_USER"
	EnvDBName           = "FABGUARD_DB_NAME"
	EnvDBPassword       = "FABGUARD_DB_PASSWORD"
	EnvRedisURL         = "FABGUARD_REDIS_URL"
	EnvRequireSelection = "FABGUARD_CHECKOUT_REQUIRE_ITEM_SELECTION"
	EnvSubmitTimeout    = "FABGUARD_CHECKOUT_SUBMIT_TIMEOUT"
	EnvAdminWhatsApp    = "FABGUARD_NOTIFY_ADMIN_WHATSAPP"
	EnvPubSubEnabled    = "FABGUARD_NOTIFY_PUBSUB_ENABLED"
	EnvPubSubOrders     = "FABGUARD_PUBSUB_ORDERS_TOPIC"
	EnvEmailEnabled     = "FABGUARD_NOTIFY_EMAIL_ENABLED"
	EnvPubSubEmail      = "FABGUARD_PUBSUB_EMAIL_TOPIC"
	EnvAdminEmails      = "FABGUARD_NOTIFY_ADMIN_EMAILS"
	EnvGCPProjectID     = "FABGUARD_GCP_PROJECT_ID"
	EnvAuthJWTSecret    = "FABGUARD_AUTH_JWT_SECRET"
	EnvCORSOrigins      = "FABGUARD_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
