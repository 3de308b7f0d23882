package config

const (
	EnvPrefix = "CAFEMUJI"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                  = "CAFEMUJI_APP_ENV"
	EnvPort                    = "CAFEMUJI_APP_PORT"
	EnvDBDSN                   = "CAFEMUJI_DB_DSN"
	EnvDBDriver                = "CAFEMUJI_DB_DRIVER"
	EnvDBHost                  = "CAFEMUJI_DB_HOST"
	EnvDBUser                  = "CAFEMUJI_DB_USER"
	EnvDBName                  = "CAFEMUJI_DB_NAME"
	EnvRedisURL                = "CAFEMUJI_REDIS_URL"
	EnvRedisAddr               = "CAFEMUJI_REDIS_ADDR"
	EnvJWTSecret               = "CAFEMUJI_JWT_SECRET"
	EnvJWTIssuer               = "CAFEMUJI_JWT_ISSUER"
	EnvJWTExpMins              = "CAFEMUJI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "CAFEMUJI_REFRESH_TOKEN_TTL_MINUTES"
	EnvStaffPasscodeHash       = "CAFEMUJI_STAFF_PASSCODE_HASH"
	EnvBoardCompletedTTL       = "CAFEMUJI_BOARD_COMPLETED_TTL"
	EnvBoardIceHoldThreshold   = "CAFEMUJI_BOARD_ICE_HOLD_THRESHOLD"
	EnvBoardTimeZone           = "CAFEMUJI_BOARD_TIMEZONE"
	EnvSweeperRetention        = "CAFEMUJI_SWEEPER_RETENTION"
	EnvCORSAllowedOrigins      = "CAFEMUJI_CORS_ALLOWED_ORIGINS"
	EnvStaffPasscodePlain      = "CAFEMUJI_STAFF_PASSCODE"
	EnvAuthLoginTerminalLimit  = "CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_TERMINAL_LIMIT"
	EnvAuthLoginIPLimit        = "CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT"
	EnvAuthLoginWindow         = "CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_WINDOW"
	EnvIdempotencyReplayWindow = "CAFEMUJI_IDEMPOTENCY_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
