package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Bitcoin    BitcoinConfig
	Settlement SettlementConfig
	Security   SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// BitcoinConfig holds the network and collaborator service URLs
type BitcoinConfig struct {
	Network        string
	SignerURL      string
	BroadcasterURL string
	ChainQueryURL  string
	FeeOracleURL   string
	PriceOracleURL string
	RequestTimeout time.Duration
}

// SettlementConfig tunes the settlement engine
type SettlementConfig struct {
	RequiredConfirmations int32
	PollInterval          time.Duration
	NotFoundGrace         time.Duration
	ConfirmHorizon        time.Duration
	BroadcastTimeout      time.Duration
	BroadcastRetries      int
	RetryBackoffBase      time.Duration
	BatchTargetSize       int
	BatchMaxWait          time.Duration
	RecoveryInterval      time.Duration
}

// SecurityConfig holds encryption keys
type SecurityConfig struct {
	SessionEncryptionKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "runesettle"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Bitcoin: BitcoinConfig{
			Network:        getEnv("BITCOIN_NETWORK", "mainnet"),
			SignerURL:      getEnv("SIGNER_URL", "http://localhost:9040"),
			BroadcasterURL: getEnv("BROADCASTER_URL", "http://localhost:9041"),
			ChainQueryURL:  getEnv("CHAIN_QUERY_URL", "http://localhost:9042"),
			FeeOracleURL:   getEnv("FEE_ORACLE_URL", "http://localhost:9043"),
			PriceOracleURL: getEnv("PRICE_ORACLE_URL", "http://localhost:9044"),
			RequestTimeout: getEnvAsDuration("BITCOIN_REQUEST_TIMEOUT", 15*time.Second),
		},
		Settlement: SettlementConfig{
			RequiredConfirmations: int32(getEnvAsInt("SETTLEMENT_REQUIRED_CONFIRMATIONS", 6)),
			PollInterval:          getEnvAsDuration("SETTLEMENT_POLL_INTERVAL", 30*time.Second),
			NotFoundGrace:         getEnvAsDuration("SETTLEMENT_NOT_FOUND_GRACE", 10*time.Minute),
			ConfirmHorizon:        getEnvAsDuration("SETTLEMENT_CONFIRM_HORIZON", 24*time.Hour),
			BroadcastTimeout:      getEnvAsDuration("SETTLEMENT_BROADCAST_TIMEOUT", 30*time.Second),
			BroadcastRetries:      getEnvAsInt("SETTLEMENT_BROADCAST_RETRIES", 3),
			RetryBackoffBase:      getEnvAsDuration("SETTLEMENT_RETRY_BACKOFF_BASE", time.Second),
			BatchTargetSize:       getEnvAsInt("SETTLEMENT_BATCH_TARGET_SIZE", 10),
			BatchMaxWait:          getEnvAsDuration("SETTLEMENT_BATCH_MAX_WAIT", 10*time.Minute),
			RecoveryInterval:      getEnvAsDuration("SETTLEMENT_RECOVERY_INTERVAL", 30*time.Second),
		},
		Security: SecurityConfig{
			SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
