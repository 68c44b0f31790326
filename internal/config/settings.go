package config

import "time"

type ServerConfig struct {
	Port        string
	CORSOrigins string
	JWTSecret   string
	// CallbackPath is the public path the gateway posts notifications to.
	CallbackPath string
	// PublicBaseURL is prefixed to CallbackPath to build notify URLs.
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	ScoreTTL time.Duration
}

type LoggingConfig struct {
	Level      string
	Format     string // json or text
	Output     string // stdout, file or both
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// GatewayConfig is the raw gateway environment; keys are parsed at startup.
type GatewayConfig struct {
	PartnerID      string
	PrivateKey     string
	PrivateKeyFile string
	PublicKey      string
	PublicKeyFile  string
	Environment    string
	BaseURL        string
	APIVersion     string
	Timezone       string
	Timeout        time.Duration
}

type LLMConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type SchedulerConfig struct {
	Enabled     bool
	ScoringCron string
	WarningCron string
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Gateway   GatewayConfig
	LLM       LLMConfig
	Scheduler SchedulerConfig
}

// Load reads the whole configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          GetEnv("PORT", "8080"),
			CORSOrigins:   GetEnv("CORS_ORIGINS", "*"),
			JWTSecret:     GetEnv("JWT_SECRET", ""),
			CallbackPath:  GetEnv("GATEWAY_CALLBACK_PATH", "/api/gateway/callback"),
			PublicBaseURL: GetEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetIntEnv("DB_PORT", 5432),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "paybaba"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
			ScoreTTL: GetDurationEnv("REDIS_SCORE_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:      GetEnv("LOG_LEVEL", "info"),
			Format:     GetEnv("LOG_FORMAT", "json"),
			Output:     GetEnv("LOG_OUTPUT", "stdout"),
			FilePath:   GetEnv("LOG_FILE", "logs/paybaba.log"),
			MaxSizeMB:  GetIntEnv("LOG_MAX_SIZE_MB", 100),
			MaxBackups: GetIntEnv("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: GetIntEnv("LOG_MAX_AGE_DAYS", 30),
			Compress:   GetBoolEnv("LOG_COMPRESS", true),
		},
		Gateway: GatewayConfig{
			PartnerID:      GetEnv("GATEWAY_PARTNER_ID", ""),
			PrivateKey:     GetEnv("GATEWAY_PRIVATE_KEY", ""),
			PrivateKeyFile: GetEnv("GATEWAY_PRIVATE_KEY_FILE", ""),
			PublicKey:      GetEnv("GATEWAY_PUBLIC_KEY", ""),
			PublicKeyFile:  GetEnv("GATEWAY_PUBLIC_KEY_FILE", ""),
			Environment:    GetEnv("GATEWAY_ENV", "sandbox"),
			BaseURL:        GetEnv("GATEWAY_BASE_URL", ""),
			APIVersion:     GetEnv("GATEWAY_API_VERSION", "v2.1"),
			Timezone:       GetEnv("GATEWAY_TIMEZONE", "Asia/Jakarta"),
			Timeout:        GetDurationEnv("GATEWAY_TIMEOUT", 0),
		},
		LLM: LLMConfig{
			URL:     GetEnv("LLM_API_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey:  GetEnv("LLM_API_KEY", ""),
			Model:   GetEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout: GetDurationEnv("LLM_TIMEOUT", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:     GetBoolEnv("SCHEDULER_ENABLED", true),
			ScoringCron: GetEnv("SCORING_CRON", "0 2 * * *"),
			WarningCron: GetEnv("WARNING_CRON", "0 */6 * * *"),
		},
	}
}
