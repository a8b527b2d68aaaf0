package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
// It is built once at process start and injected everywhere; nothing
// reads os.Getenv after LoadConfig returns.
type Config struct {
	Environment string

	Server     ServerConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Limits     LimitsConfig
	Generation GenerationConfig
}

type ServerConfig struct {
	Port         int
	TLSPort      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableTLS   bool
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string

	MaxUploadBytes int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// LimitsConfig carries the three admission policies. Zero values are
// never used; LoadConfig applies the defaults below.
type LimitsConfig struct {
	DailyLimit     int64
	PerMinuteLimit int64
	Cooldown       time.Duration
}

type GenerationConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LoadConfig reads the environment (after an optional .env file) into a Config.
func LoadConfig() *Config {
	// .env is a developer convenience; absence is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			TLSPort:        getEnvInt("TLS_PORT", 8443),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT_SECONDS", 30),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT_SECONDS", 60),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT_SECONDS", 120),
			EnableTLS:      getEnvBool("ENABLE_TLS", false),
			AutoCert:       getEnvBool("AUTO_CERT", false),
			Domain:         getEnv("TLS_DOMAIN", "localhost"),
			CertFile:       getEnv("TLS_CERT_FILE", ""),
			KeyFile:        getEnv("TLS_KEY_FILE", ""),
			AutoCertDir:    getEnv("AUTO_CERT_DIR", "./certs"),
			Email:          getEnv("TLS_EMAIL", ""),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvList("KAFKA_BROKERS"),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "admission-events"),
		},
		Limits: LimitsConfig{
			DailyLimit:     int64(getEnvInt("FREE_2K_DAILY_LIMIT", 3)),
			PerMinuteLimit: int64(getEnvInt("RATE_LIMIT_PER_MIN", 10)),
			Cooldown:       getEnvDuration("COOLDOWN_SECONDS", 10),
		},
		Generation: GenerationConfig{
			APIURL:  getEnv("GENERATION_API_URL", ""),
			APIKey:  getEnv("GENERATION_API_KEY", ""),
			Model:   getEnv("GENERATION_MODEL", "gemini-2.0-flash-exp"),
			Timeout: getEnvDuration("GENERATION_TIMEOUT_SECONDS", 60),
		},
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration reads an integer number of seconds.
func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
