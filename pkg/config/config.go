package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "tradepulse"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TRADEPULSE_DB_DSN"
	EnvDBHost = "TRADEPULSE_DB_HOST"
	EnvDBUser = "TRADEPULSE_DB_USER"
	EnvDBName = "TRADEPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	SMTP          SMTPConfig
	Cron          CronConfig
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
	Env          string `envconfig:"TRADEPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRADEPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEPULSE_DB_DSN"`
	Driver string `envconfig:"TRADEPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEPULSE_DB_USER"`
	LegacyPassword string `envconfig:"TRADEPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TRADEPULSE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TRADEPULSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TRADEPULSE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TRADEPULSE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADEPULSE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADEPULSE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADEPULSE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADEPULSE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADEPULSE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TRADEPULSE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"TRADEPULSE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"TRADEPULSE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRADEPULSE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRADEPULSE_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"TRADEPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EmailTopic        string `envconfig:"TRADEPULSE_PUBSUB_EMAIL_TOPIC" default:"tp-email-events"`
	EmailSubscription string `envconfig:"TRADEPULSE_PUBSUB_EMAIL_SUBSCRIPTION" default:"tp-email-events-worker"`
}

type SMTPConfig struct {
	Host        string `envconfig:"TRADEPULSE_SMTP_HOST"`
	Port        int    `envconfig:"TRADEPULSE_SMTP_PORT" default:"587"`
	Username    string `envconfig:"TRADEPULSE_SMTP_USERNAME"`
	Password    string `envconfig:"TRADEPULSE_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"TRADEPULSE_SMTP_FROM_EMAIL" default:"signals@tradepulse.io"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"TRADEPULSE_CRON_INTERVAL" default:"1h"`
	ExpirySweepLimit int           `envconfig:"TRADEPULSE_CRON_EXPIRY_SWEEP_LIMIT" default:"500"`
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
