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
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Delivery      DeliveryConfig
	Checkout      CheckoutConfig
	Session       SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Delivery.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FASTGET_APP_ENV" required:"true"`
	Port         string `envconfig:"FASTGET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FASTGET_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FASTGET_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FASTGET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FASTGET_DB_DSN"`
	Driver string `envconfig:"FASTGET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FASTGET_DB_HOST"`
	Port     int    `envconfig:"FASTGET_DB_PORT" default:"5432"`
	User     string `envconfig:"FASTGET_DB_USER"`
	Password string `envconfig:"FASTGET_DB_PASSWORD"`
	Name     string `envconfig:"FASTGET_DB_NAME"`
	SSLMode  string `envconfig:"FASTGET_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FASTGET_SQLITE_PATH" default:"fastget.db"`

	MaxOpenConns    int           `envconfig:"FASTGET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FASTGET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FASTGET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FASTGET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FASTGET_REDIS_URL"`
	Address      string        `envconfig:"FASTGET_REDIS_ADDR"`
	Password     string        `envconfig:"FASTGET_REDIS_PASSWORD"`
	DB           int           `envconfig:"FASTGET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FASTGET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FASTGET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FASTGET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FASTGET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FASTGET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FASTGET_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FASTGET_JWT_ISSUER" default:"fastget"`
	ExpirationMinutes      int    `envconfig:"FASTGET_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FASTGET_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FASTGET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FASTGET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FASTGET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FASTGET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FASTGET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FASTGET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FASTGET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FASTGET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FASTGET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FASTGET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FASTGET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FASTGET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FASTGET_AUTO_MIGRATE" default:"false"`
	SeedTowns   bool `envconfig:"FASTGET_SEED_TOWNS" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FASTGET_CORS_ALLOWED_ORIGINS" default:"*"`
}

// DeliveryConfig selects the authoritative delivery-fee model.
type DeliveryConfig struct {
	FeeModel       string  `envconfig:"FASTGET_DELIVERY_FEE_MODEL" default:"town"`
	DefaultTownFee float64 `envconfig:"FASTGET_DELIVERY_DEFAULT_TOWN_FEE" default:"7"`
	BaseFee        float64 `envconfig:"FASTGET_DELIVERY_BASE_FEE" default:"5"`
	PerKmFee       float64 `envconfig:"FASTGET_DELIVERY_PER_KM_FEE" default:"2"`
	TaxRate        float64 `envconfig:"FASTGET_TAX_RATE" default:"0"`
}

func (d DeliveryConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.FeeModel)) {
	case FeeModelTown, FeeModelDistance:
	default:
		return fmt.Errorf("unsupported delivery fee model %q", d.FeeModel)
	}
	if d.TaxRate < 0 || d.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be in [0,1), got %v", d.TaxRate)
	}
	return nil
}

type CheckoutConfig struct {
	QuoteTTL      time.Duration `envconfig:"FASTGET_CHECKOUT_QUOTE_TTL" default:"30m"`
	Currency      string        `envconfig:"FASTGET_CURRENCY" default:"GHS"`
	PreferenceTTL time.Duration `envconfig:"FASTGET_PREFERENCE_TTL" default:"2160h"`
}

// SessionConfig carries the client-side session synchronization timings.
type SessionConfig struct {
	ReadyTimeout      time.Duration `envconfig:"FASTGET_SESSION_READY_TIMEOUT" default:"6s"`
	RoleFetchTimeout  time.Duration `envconfig:"FASTGET_SESSION_ROLE_FETCH_TIMEOUT" default:"5s"`
	RoleFetchAttempts int           `envconfig:"FASTGET_SESSION_ROLE_FETCH_ATTEMPTS" default:"3"`
	RoleFetchBackoff  time.Duration `envconfig:"FASTGET_SESSION_ROLE_FETCH_BACKOFF" default:"1s"`
	WatchdogDelay     time.Duration `envconfig:"FASTGET_SESSION_WATCHDOG_DELAY" default:"2s"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		if db.SQLitePath == "" {
			return fmt.Errorf("%s is required when %s is set", EnvSQLitePath, EnvUseSQLite)
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
