package config

const EnvPrefix = "FASTGET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	FeeModelTown     = "town"
	FeeModelDistance = "distance"
)

const (
	EnvAppEnv                 = "FASTGET_APP_ENV"
	EnvPort                   = "FASTGET_APP_PORT"
	EnvDBDSN                  = "FASTGET_DB_DSN"
	EnvDBHost                 = "FASTGET_DB_HOST"
	EnvDBUser                 = "FASTGET_DB_USER"
	EnvDBName                 = "FASTGET_DB_NAME"
	EnvUseSQLite              = "FASTGET_USE_SQLITE"
	EnvSQLitePath             = "FASTGET_SQLITE_PATH"
	EnvRedisURL               = "FASTGET_REDIS_URL"
	EnvJWTSecret              = "FASTGET_JWT_SECRET"
	EnvJWTIssuer              = "FASTGET_JWT_ISSUER"
	EnvJWTExpMins             = "FASTGET_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FASTGET_REFRESH_TOKEN_TTL_MINUTES"
	EnvDeliveryFeeModel       = "FASTGET_DELIVERY_FEE_MODEL"
	EnvTaxRate                = "FASTGET_TAX_RATE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
