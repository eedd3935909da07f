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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Inventory     InventoryConfig
	Import        ImportConfig
	History       HistoryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	Realtime      RealtimeConfig
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
	Env          string `envconfig:"COLDRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"COLDRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COLDRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COLDRACK_LOG_WARN_STACK" default:"false"`
	CookieDomain string `envconfig:"COLDRACK_COOKIE_DOMAIN"`
	LoginURL     string `envconfig:"COLDRACK_LOGIN_URL" default:"/login"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"COLDRACK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"COLDRACK_DB_DSN"`
	Driver string `envconfig:"COLDRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COLDRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"COLDRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COLDRACK_DB_USER"`
	LegacyPassword string `envconfig:"COLDRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"COLDRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"COLDRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COLDRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COLDRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COLDRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COLDRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COLDRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COLDRACK_REDIS_ADDR"`
	Password     string        `envconfig:"COLDRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"COLDRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COLDRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COLDRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COLDRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COLDRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COLDRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"COLDRACK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"COLDRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"COLDRACK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"COLDRACK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"COLDRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COLDRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COLDRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COLDRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COLDRACK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"COLDRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"COLDRACK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"COLDRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COLDRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COLDRACK_AUTO_MIGRATE" default:"false"`
}

type InventoryConfig struct {
	RefreshInterval time.Duration `envconfig:"COLDRACK_INVENTORY_REFRESH_INTERVAL" default:"60s"`
	StaleAfter      time.Duration `envconfig:"COLDRACK_INVENTORY_STALE_AFTER" default:"5m"`
	HistoryLimit    int           `envconfig:"COLDRACK_INVENTORY_HISTORY_LIMIT" default:"50"`
}

type ImportConfig struct {
	MaxUploadMB int `envconfig:"COLDRACK_IMPORT_MAX_UPLOAD_MB" default:"20"`
	MaxRows     int `envconfig:"COLDRACK_IMPORT_MAX_ROWS" default:"10000"`
	PreviewTTLM int `envconfig:"COLDRACK_IMPORT_PREVIEW_TTL_MINUTES" default:"30"`
}

// PreviewTTL returns how long a parsed preview stays claimable.
func (i ImportConfig) PreviewTTL() time.Duration {
	if i.PreviewTTLM <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(i.PreviewTTLM) * time.Minute
}

type HistoryConfig struct {
	RetentionDays int `envconfig:"COLDRACK_HISTORY_RETENTION_DAYS" default:"365"`
	LatestLimit   int `envconfig:"COLDRACK_HISTORY_LATEST_LIMIT" default:"50"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"COLDRACK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"COLDRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"COLDRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ChangesTopic        string `envconfig:"COLDRACK_PUBSUB_CHANGES_TOPIC" required:"true"`
	ChangesSubscription string `envconfig:"COLDRACK_PUBSUB_CHANGES_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"COLDRACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"COLDRACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"COLDRACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	ReconcileInterval time.Duration `envconfig:"COLDRACK_CRON_RECONCILE_INTERVAL" default:"5m"`
	CleanupInterval   time.Duration `envconfig:"COLDRACK_CRON_CLEANUP_INTERVAL" default:"24h"`
	LockTTL           time.Duration `envconfig:"COLDRACK_CRON_LOCK_TTL" default:"4m"`
}

type RealtimeConfig struct {
	WriteTimeout   time.Duration `envconfig:"COLDRACK_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PingInterval   time.Duration `envconfig:"COLDRACK_REALTIME_PING_INTERVAL" default:"30s"`
	SendBufferSize int           `envconfig:"COLDRACK_REALTIME_SEND_BUFFER" default:"16"`
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
