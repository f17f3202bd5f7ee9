package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
	Platform PlatformConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type HTTPConfig struct {
	Addr      string
	JWTSecret string
}

// PlatformConfig carries the privileged identities and economic parameters.
// Owner administers bps rates and the spender allowlist, the oracle drives
// purchase-on-behalf, event closing and swappability, and EngineAddress is
// the registry's sole minting authority.
type PlatformConfig struct {
	OwnerAddress  string
	OracleAddress string
	EngineAddress string
	MarketAddress string
	SwapAddress   string

	ResaleCapBps    int64
	RoyaltyBps      int64
	SwapPlatformFee decimal.Decimal
	PointsPerEther  decimal.Decimal
	QueueWindow     int
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	AppConfig = &Config{
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		HTTP:     GetHTTPConfig(),
		Platform: GetPlatformConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := DatabaseConfig{
		Host:     "localhost",
		Port:     "5433",
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380",
		Password: "",
		DB:       1,
	}

	return &Config{
		Database: testConfig,
		Redis:    testRedisConfig,
		HTTP: HTTPConfig{
			Addr:      ":0",
			JWTSecret: "test-secret",
		},
		Platform: PlatformConfig{
			OwnerAddress:    "0xowner",
			OracleAddress:   "0xoracle",
			EngineAddress:   "0xengine",
			MarketAddress:   "0xmarket",
			SwapAddress:     "0xswap",
			ResaleCapBps:    11000,
			RoyaltyBps:      500,
			SwapPlatformFee: decimal.RequireFromString("10000000000000000"),
			PointsPerEther:  decimal.NewFromInt(3000),
			QueueWindow:     2,
		},
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:      getEnv("HTTP_ADDR", ":8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
	}
}

func GetPlatformConfig() PlatformConfig {
	return PlatformConfig{
		OwnerAddress:  getEnv("PLATFORM_OWNER_ADDRESS", "0xowner"),
		OracleAddress: getEnv("ORACLE_ADDRESS", "0xoracle"),
		EngineAddress: getEnv("ENGINE_ADDRESS", "0xengine"),
		MarketAddress: getEnv("MARKET_ADDRESS", "0xmarket"),
		SwapAddress:   getEnv("SWAP_ADDRESS", "0xswap"),

		ResaleCapBps:    getEnvInt64("RESALE_CAP_BPS", 11000),
		RoyaltyBps:      getEnvInt64("ROYALTY_BPS", 500),
		SwapPlatformFee: getEnvDecimal("SWAP_PLATFORM_FEE_WEI", "10000000000000000"),
		PointsPerEther:  getEnvDecimal("POINTS_PER_ETHER", "3000"),
		QueueWindow:     int(getEnvInt64("QUEUE_WINDOW", 2)),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	return decimal.RequireFromString(value)
}
