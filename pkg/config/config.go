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
	Weather       WeatherConfig
	SMS           SMSConfig
	Models        ModelsConfig
	Alerts        AlertsConfig
	Uploads       UploadsConfig
	GCS           GCSConfig
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
	Env          string `envconfig:"AGROSCAN_APP_ENV" required:"true"`
	Port         string `envconfig:"AGROSCAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGROSCAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGROSCAN_LOG_WARN_STACK" default:"false"`

	// RequestTimeout bounds a whole request, above the per-provider client
	// timeouts, so one stuck upstream cannot pin a handler forever.
	RequestTimeout time.Duration `envconfig:"AGROSCAN_APP_REQUEST_TIMEOUT" default:"30s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGROSCAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGROSCAN_DB_DSN"`
	Driver string `envconfig:"AGROSCAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGROSCAN_DB_HOST"`
	LegacyPort     int    `envconfig:"AGROSCAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGROSCAN_DB_USER"`
	LegacyPassword string `envconfig:"AGROSCAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGROSCAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGROSCAN_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"AGROSCAN_DB_SQLITE_PATH" default:"agroscan.db"`

	MaxOpenConns    int           `envconfig:"AGROSCAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGROSCAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGROSCAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGROSCAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGROSCAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGROSCAN_REDIS_ADDR"`
	Password     string        `envconfig:"AGROSCAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGROSCAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGROSCAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGROSCAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGROSCAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGROSCAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGROSCAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret         string `envconfig:"AGROSCAN_JWT_SECRET" required:"true"`
	Issuer         string `envconfig:"AGROSCAN_JWT_ISSUER" required:"true"`
	ExpirationDays int    `envconfig:"AGROSCAN_JWT_EXPIRATION_DAYS" default:"7"`
}

// SessionTTL returns the session window configured in days.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationDays <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGROSCAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGROSCAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGROSCAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGROSCAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGROSCAN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit    int           `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow      time.Duration `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupUserLimit   int           `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_SIGNUP_USER_LIMIT" default:"3"`
	SignupIPLimit     int           `envconfig:"AGROSCAN_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGROSCAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGROSCAN_AUTO_MIGRATE" default:"false"`
}

type WeatherConfig struct {
	BaseURL string        `envconfig:"AGROSCAN_WEATHER_BASE_URL" default:"https://api.openweathermap.org"`
	APIKey  string        `envconfig:"AGROSCAN_WEATHER_API_KEY"`
	Units   string        `envconfig:"AGROSCAN_WEATHER_UNITS" default:"metric"`
	Timeout time.Duration `envconfig:"AGROSCAN_WEATHER_TIMEOUT" default:"8s"`
}

type SMSConfig struct {
	BaseURL  string        `envconfig:"AGROSCAN_SMS_BASE_URL" default:"https://www.fast2sms.com/dev/bulkV2"`
	APIKey   string        `envconfig:"AGROSCAN_SMS_API_KEY"`
	SenderID string        `envconfig:"AGROSCAN_SMS_SENDER_ID" default:"AGSCAN"`
	Route    string        `envconfig:"AGROSCAN_SMS_ROUTE" default:"q"`
	Timeout  time.Duration `envconfig:"AGROSCAN_SMS_TIMEOUT" default:"10s"`
}

type ModelsConfig struct {
	CropHealthManifest  string        `envconfig:"AGROSCAN_MODEL_CROP_HEALTH_MANIFEST" default:"models/crop_health.json"`
	RecommenderManifest string        `envconfig:"AGROSCAN_MODEL_RECOMMENDER_MANIFEST" default:"models/crop_recommender.json"`
	RunnerTimeout       time.Duration `envconfig:"AGROSCAN_MODEL_RUNNER_TIMEOUT" default:"15s"`
}

type AlertsConfig struct {
	Interval time.Duration `envconfig:"AGROSCAN_ALERTS_INTERVAL" default:"24h"`
	Greeting string        `envconfig:"AGROSCAN_ALERTS_GREETING" default:"Hello from AgroScan!"`
}

type UploadsConfig struct {
	Mode         string        `envconfig:"AGROSCAN_UPLOADS_MODE" default:"local"`
	LocalDir     string        `envconfig:"AGROSCAN_UPLOADS_LOCAL_DIR" default:"uploads"`
	MaxUploadMB  int           `envconfig:"AGROSCAN_MAX_UPLOAD_MB" default:"10"`
	OrphanMaxAge time.Duration `envconfig:"AGROSCAN_UPLOADS_ORPHAN_MAX_AGE" default:"24h"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"AGROSCAN_GCS_BUCKET_NAME"`
	CredentialsJSON string `envconfig:"AGROSCAN_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"AGROSCAN_GOOGLE_APPLICATION_CREDENTIALS"`
}

func (u UploadsConfig) UsesGCS() bool {
	return strings.EqualFold(strings.TrimSpace(u.Mode), UploadsModeGCS)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = db.SQLitePath
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
