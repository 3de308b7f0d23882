package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Staff         StaffConfig
	Board         BoardConfig
	Cart          CartConfig
	Sweeper       SweeperConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Board.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sweeper.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAFEMUJI_APP_ENV" required:"true"`
	Port         string `envconfig:"CAFEMUJI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CAFEMUJI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAFEMUJI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN         string `envconfig:"CAFEMUJI_DB_DSN"`
	Driver      string `envconfig:"CAFEMUJI_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"CAFEMUJI_DB_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"CAFEMUJI_DB_HOST"`
	LegacyPort     int    `envconfig:"CAFEMUJI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAFEMUJI_DB_USER"`
	LegacyPassword string `envconfig:"CAFEMUJI_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAFEMUJI_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAFEMUJI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAFEMUJI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAFEMUJI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAFEMUJI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAFEMUJI_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; zero disables.
	SlowQueryThreshold time.Duration `envconfig:"CAFEMUJI_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the single-terminal sqlite store is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CAFEMUJI_REDIS_URL"`
	Address      string        `envconfig:"CAFEMUJI_REDIS_ADDR"`
	Password     string        `envconfig:"CAFEMUJI_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAFEMUJI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAFEMUJI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAFEMUJI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAFEMUJI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAFEMUJI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAFEMUJI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CAFEMUJI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CAFEMUJI_JWT_ISSUER" default:"cafemuji"`
	ExpirationMinutes      int    `envconfig:"CAFEMUJI_JWT_EXPIRATION_MINUTES" default:"720"`
	RefreshTokenTTLMinutes int    `envconfig:"CAFEMUJI_REFRESH_TOKEN_TTL_MINUTES" default:"1440"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAFEMUJI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAFEMUJI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAFEMUJI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAFEMUJI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAFEMUJI_ARGON_KEY_LEN" default:"32"`
}

// StaffConfig holds the staff terminal credential. Only the argon2id hash is
// configured; the plain passcode never reaches the service.
type StaffConfig struct {
	PasscodeHash string `envconfig:"CAFEMUJI_STAFF_PASSCODE_HASH" required:"true"`
}

// BoardConfig tunes the order board read path.
type BoardConfig struct {
	CompletedTTL      time.Duration `envconfig:"CAFEMUJI_BOARD_COMPLETED_TTL" default:"30s"`
	RecentThreshold   time.Duration `envconfig:"CAFEMUJI_BOARD_RECENT_THRESHOLD" default:"3s"`
	IceHoldThreshold  int           `envconfig:"CAFEMUJI_BOARD_ICE_HOLD_THRESHOLD" default:"3"`
	StatisticsTopSize int           `envconfig:"CAFEMUJI_BOARD_STATISTICS_TOP" default:"5"`
	TimeZone          string        `envconfig:"CAFEMUJI_BOARD_TIMEZONE" default:"Local"`
}

// Location resolves the zone the statistics day is cut in.
func (b BoardConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(b.TimeZone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvBoardTimeZone, err)
	}
	return loc, nil
}

func (b BoardConfig) validate() error {
	if b.CompletedTTL < 0 {
		return fmt.Errorf("%s must not be negative", EnvBoardCompletedTTL)
	}
	if b.IceHoldThreshold < 0 {
		return fmt.Errorf("%s must not be negative", EnvBoardIceHoldThreshold)
	}
	if _, err := b.Location(); err != nil {
		return err
	}
	return nil
}

// CartConfig bounds how long an idle staging cart survives in redis.
type CartConfig struct {
	TTL time.Duration `envconfig:"CAFEMUJI_CART_TTL" default:"12h"`
}

// SweeperConfig drives the background board maintenance loop.
type SweeperConfig struct {
	Interval  time.Duration `envconfig:"CAFEMUJI_SWEEPER_INTERVAL" default:"1m"`
	Retention time.Duration `envconfig:"CAFEMUJI_SWEEPER_RETENTION" default:"168h"`
	LockTTL   time.Duration `envconfig:"CAFEMUJI_SWEEPER_LOCK_TTL" default:"50s"`
	// Embedded runs the loop inside the API process.
	Embedded bool `envconfig:"CAFEMUJI_SWEEPER_EMBEDDED" default:"true"`
}

// Completed items must outlive the statistics day.
func (s SweeperConfig) validate() error {
	if s.Retention < 24*time.Hour {
		return fmt.Errorf("%s must be at least 24h", EnvSweeperRetention)
	}
	return nil
}

type AuthRateLimitConfig struct {
	LoginWindow          time.Duration `envconfig:"CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginTerminalLimit   int           `envconfig:"CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_TERMINAL_LIMIT" default:"5"`
	LoginIPLimit         int           `envconfig:"CAFEMUJI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	IdempotencyReplayTTL time.Duration `envconfig:"CAFEMUJI_IDEMPOTENCY_TTL" default:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CAFEMUJI_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:cafemuji.db?cache=shared&_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
