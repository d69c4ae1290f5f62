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
	Metrics       MetricsConfig
	Reconcile     ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISTRO_APP_ENV" required:"true"`
	Port         string `envconfig:"DISTRO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DISTRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISTRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN     string `envconfig:"DISTRO_DB_DSN"`
	Driver  string `envconfig:"DISTRO_DB_DRIVER" default:"postgres"`
	Tracing bool   `envconfig:"DISTRO_DB_TRACING" default:"false"`

	Host     string `envconfig:"DISTRO_DB_HOST"`
	Port     int    `envconfig:"DISTRO_DB_PORT" default:"5432"`
	User     string `envconfig:"DISTRO_DB_USER"`
	Password string `envconfig:"DISTRO_DB_PASSWORD"`
	Name     string `envconfig:"DISTRO_DB_NAME"`
	SSLMode  string `envconfig:"DISTRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DISTRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DISTRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DISTRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISTRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"DISTRO_REDIS_URL" required:"true"`
	DB           int           `envconfig:"DISTRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISTRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISTRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISTRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISTRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISTRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DISTRO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DISTRO_JWT_ISSUER" default:"distro-ops"`
	ExpirationMinutes      int    `envconfig:"DISTRO_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"DISTRO_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DISTRO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DISTRO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DISTRO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DISTRO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DISTRO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DISTRO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"DISTRO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"DISTRO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DISTRO_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DISTRO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"DISTRO_METRICS_ENABLED" default:"true"`
}

type ReconcileConfig struct {
	LockTTL time.Duration `envconfig:"DISTRO_RECONCILE_LOCK_TTL" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
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
