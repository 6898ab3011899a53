package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Receipts     ReceiptsConfig
	Gemini       GeminiConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"HOMESTEAD_APP_ENV" required:"true"`
	Port         string `envconfig:"HOMESTEAD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOMESTEAD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOMESTEAD_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"HOMESTEAD_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOMESTEAD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOMESTEAD_DB_DSN"`
	Driver string `envconfig:"HOMESTEAD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOMESTEAD_DB_HOST"`
	LegacyPort     int    `envconfig:"HOMESTEAD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOMESTEAD_DB_USER"`
	LegacyPassword string `envconfig:"HOMESTEAD_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOMESTEAD_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOMESTEAD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOMESTEAD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOMESTEAD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOMESTEAD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMESTEAD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// StatementTimeout is applied per connection; there is no other
	// cancellation contract on reconciliation writes.
	StatementTimeout time.Duration `envconfig:"HOMESTEAD_DB_STATEMENT_TIMEOUT" default:"30s"`
	// SlowQuery is the threshold above which queries are logged at warn.
	SlowQuery time.Duration `envconfig:"HOMESTEAD_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMESTEAD_REDIS_URL"`
	Address      string        `envconfig:"HOMESTEAD_REDIS_ADDR"`
	Password     string        `envconfig:"HOMESTEAD_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMESTEAD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMESTEAD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMESTEAD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMESTEAD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMESTEAD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOMESTEAD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"HOMESTEAD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HOMESTEAD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HOMESTEAD_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOMESTEAD_AUTO_MIGRATE" default:"false"`
}

type ReceiptsConfig struct {
	MaxImageMB     int           `envconfig:"HOMESTEAD_RECEIPTS_MAX_IMAGE_MB" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"HOMESTEAD_RECEIPTS_IDEMPOTENCY_TTL" default:"24h"`
	LearnEdits     bool          `envconfig:"HOMESTEAD_RECEIPTS_LEARN_EDITS" default:"true"`
	ScanLimit      int           `envconfig:"HOMESTEAD_RECEIPTS_SCAN_LIMIT" default:"30"`
	ScanWindow     time.Duration `envconfig:"HOMESTEAD_RECEIPTS_SCAN_WINDOW" default:"1h"`
}

// MaxImageBytes converts the configured limit into bytes.
func (r ReceiptsConfig) MaxImageBytes() int {
	if r.MaxImageMB <= 0 {
		return 10 << 20
	}
	return r.MaxImageMB << 20
}

type GeminiConfig struct {
	APIKey string `envconfig:"HOMESTEAD_GEMINI_API_KEY"`
	Model  string `envconfig:"HOMESTEAD_GEMINI_MODEL" default:"gemini-2.5-flash"`
}

type CORSConfig struct {
	Origins []string `envconfig:"HOMESTEAD_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
