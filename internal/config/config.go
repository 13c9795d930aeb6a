package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// JWT
	JWTSecret        string
	JWTAccessTTLMins int

	// OTP
	OTPLength        int
	OTPExpiryMinutes int

	// Seeded admin account. Seeding is skipped entirely when the
	// password is left empty.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Mail transport
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Redis (rate-limit counters)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSAllowedOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		JWTSecret:        getEnv("JWT_SECRET", "dev-only-secret-change-me"),
		JWTAccessTTLMins: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),

		OTPLength:        getEnvInt("OTP_LENGTH", 6),
		OTPExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 5),

		AdminUsername: getEnv("ADMIN_USERNAME", "wellnest_admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@wellnest.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "System Administrator"),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASSWORD", ""),
		MailFrom: getEnv("MAIL_FROM", "no-reply@wellnest.com"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "wellnest")
	pass := getEnv("DB_PASSWORD", "wellnest")
	name := getEnv("DB_NAME", "wellnest")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMins) * time.Minute
}

func (c Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTPExpiryMinutes) * time.Minute
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
