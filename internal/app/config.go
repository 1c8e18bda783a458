package app

import "os"

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr   string
	KafkaBroker string

	TelegramToken string

	AdminUser         string
	AdminPasswordHash string

	Port string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ConfigFromEnv() Config {
	return Config{
		DBHost:            getenv("DB_HOST", "localhost"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            getenv("DB_NAME", "leavedesk"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker:       os.Getenv("KAFKA_BROKER"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Port:              getenv("PORT", "3000"),
	}
}
