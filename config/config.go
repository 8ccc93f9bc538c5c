package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lookingup/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// VerifierConfig carries the engine's network knobs.
type VerifierConfig struct {
	HelloHostname  string        `json:"hello_hostname"`
	SMTPPort       int           `json:"smtp_port"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	CommandPacing  time.Duration `json:"command_pacing"`
	DNSTimeout     time.Duration `json:"dns_timeout"`
	SocksProxyAddr string        `json:"socks_proxy_addr"`

	// Inter-probe pacing per plan tier for batch and discovery runs.
	DelayStandard time.Duration `json:"delay_standard"`
	DelayPro      time.Duration `json:"delay_pro"`

	// Optional file overrides for the classification sets.
	DisposableListPath string `json:"disposable_list_path"`
	RoleListPath       string `json:"role_list_path"`
	FreeListPath       string `json:"free_list_path"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	Redis RedisConfig `json:"redis"`

	SentryDSN string `json:"-"`
	NSQDAddr  string `json:"nsqd_addr"`

	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	Verifier VerifierConfig `json:"verifier"`
}

func init() {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "lookingup"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		SentryDSN: getEnv("SENTRY_DSN", ""),
		NSQDAddr:  getEnv("NSQD_ADDRESS", ""),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),

		Verifier: VerifierConfig{
			HelloHostname:  getEnv("VERIFIER_HELLO_HOSTNAME", "verify.lookingup.online"),
			SMTPPort:       getEnvAsInt("VERIFIER_SMTP_PORT", 25),
			ConnectTimeout: getEnvAsDuration("VERIFIER_CONNECT_TIMEOUT", 15*time.Second),
			CommandPacing:  getEnvAsDuration("VERIFIER_COMMAND_PACING", 500*time.Millisecond),
			DNSTimeout:     getEnvAsDuration("VERIFIER_DNS_TIMEOUT", 5*time.Second),
			SocksProxyAddr: getEnv("VERIFIER_SOCKS_PROXY", ""),

			DelayStandard: getEnvAsDuration("VERIFIER_DELAY_STANDARD", 2*time.Second),
			DelayPro:      getEnvAsDuration("VERIFIER_DELAY_PRO", 0),

			DisposableListPath: getEnv("DISPOSABLE_LIST_PATH", ""),
			RoleListPath:       getEnv("ROLE_LIST_PATH", ""),
			FreeListPath:       getEnv("FREE_LIST_PATH", ""),
		},
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	logConfig()
	return nil
}

// ProbeDelayForPlan maps a subscription plan to its inter-probe pacing.
func (c *Config) ProbeDelayForPlan(plan string) time.Duration {
	if plan == "pro" {
		return c.Verifier.DelayPro
	}
	return c.Verifier.DelayStandard
}

func ConnectDB() error {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.WithField("dsn", maskPassword(dsn)).Info("connecting to database")

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("database ready")
	return nil
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.APIKey{},
		&models.Subscription{},
		&models.EmailVerification{},
		&models.VerificationResult{},
		&models.UsageLog{},
		&models.DailyUsage{},
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment": AppConfig.Environment,
		"server_port": AppConfig.ServerPort,
		"database":    fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"redis":       AppConfig.Redis.Enabled,
		"nsqd":        AppConfig.NSQDAddr != "",
	}).Info("configuration loaded")
}
