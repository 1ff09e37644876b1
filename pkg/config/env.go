package config

const EnvPrefix = "STYLINX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	IdentityProviderFirebase = "firebase"
	IdentityProviderLocal    = "local"

	AuthStoreNone  = "none"
	AuthStoreRedis = "redis"
	AuthStoreSQL   = "sql"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv           = "STYLINX_APP_ENV"
	EnvPort             = "STYLINX_APP_PORT"
	EnvLogLevel         = "STYLINX_LOG_LEVEL"
	EnvCatalogBaseURL   = "STYLINX_CATALOG_BASE_URL"
	EnvCatalogSequenced = "STYLINX_CATALOG_SEQUENCED"
	EnvIdentityProvider = "STYLINX_IDENTITY_PROVIDER"
	EnvFirebaseAPIKey   = "STYLINX_FIREBASE_API_KEY"
	EnvAuthStore        = "STYLINX_AUTH_STORE"
	EnvAuthStoreKey     = "STYLINX_AUTH_STORE_KEY"
	EnvDBDriver         = "STYLINX_DB_DRIVER"
	EnvDBDSN            = "STYLINX_DB_DSN"
	EnvRedisURL         = "STYLINX_REDIS_URL"
	EnvRedisAddr        = "STYLINX_REDIS_ADDR"
	EnvJWTSecret        = "STYLINX_JWT_SECRET"
	EnvFastShippingCost = "STYLINX_FAST_SHIPPING_COST"
)
