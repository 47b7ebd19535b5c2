package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string // 为空则关闭审计落库
	RedisURL      string // 为空则关闭缓存失效通知
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	EnableCORS    bool

	// 每分钟配额，按动作类别独立计数
	FollowRateLimit  int
	BlockRateLimit   int
	UnblockRateLimit int
	MuteRateLimit    int
	APIRateLimit     int

	MaxBulkTargets int // 批量操作单次上限
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		EnableCORS:    getEnv("ENABLE_CORS", "true") == "true",

		FollowRateLimit:  getEnvInt("FOLLOW_RATE_LIMIT", 50),
		BlockRateLimit:   getEnvInt("BLOCK_RATE_LIMIT", 20),
		UnblockRateLimit: getEnvInt("UNBLOCK_RATE_LIMIT", 100),
		MuteRateLimit:    getEnvInt("MUTE_RATE_LIMIT", 50),
		APIRateLimit:     getEnvInt("API_RATE_LIMIT", 1000),

		MaxBulkTargets: getEnvInt("MAX_BULK_TARGETS", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
