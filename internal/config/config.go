// Package config загружает настройки сервиса из флагов и переменных окружения.
package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr       string
	GRPCAddr      string
	BaseURL       string
	DatabaseDSN   string
	RedisAddr     string
	JWTSecret     string
	TrustedSubnet string
	GeoHeader     string
	EventFilePath string
	LogLevel      string
	ClickWorkers  int
	ClickQueue    int
	CookieTTL     time.Duration
}

// NewConfig создаёт новый объект Config: значения по умолчанию, затем флаги,
// затем переменные окружения (.env подхватывается, если присутствует)
func NewConfig() (*Config, error) {
	// .env не обязателен, его отсутствие не ошибка
	_ = godotenv.Load()

	cfg := &Config{
		ClickWorkers: 4,
		ClickQueue:   1024,
		CookieTTL:    24 * time.Hour,
	}

	flag.StringVar(&cfg.RunAddr, "a", ":8080", "address and port to run HTTP server")
	flag.StringVar(&cfg.GRPCAddr, "g", ":3200", "address and port to run gRPC server")
	flag.StringVar(&cfg.BaseURL, "b", "http://localhost:8080", "base URL for short links")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "database DSN for PostgreSQL")
	flag.StringVar(&cfg.RedisAddr, "r", "", "Redis address for aggregate counters")
	flag.StringVar(&cfg.JWTSecret, "j", "default_jwt_secret", "JWT secret key")
	flag.StringVar(&cfg.TrustedSubnet, "t", "", "trusted subnet in CIDR notation for internal endpoints")
	flag.StringVar(&cfg.GeoHeader, "geo-header", "CF-IPCountry", "request header carrying the viewer country code")
	flag.StringVar(&cfg.EventFilePath, "f", "internal/storage/clicks.ndjson", "path to click event journal file")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")
	flag.Parse()

	// Переменные окружения имеют приоритет над флагами
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.RunAddr = addr
	}
	if addr := os.Getenv("GRPC_ADDRESS"); addr != "" {
		cfg.GRPCAddr = addr
	}
	if url := os.Getenv("BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if subnet := os.Getenv("TRUSTED_SUBNET"); subnet != "" {
		cfg.TrustedSubnet = subnet
	}
	if header := os.Getenv("GEO_HEADER"); header != "" {
		cfg.GeoHeader = header
	}
	if path := os.Getenv("EVENT_FILE_PATH"); path != "" {
		cfg.EventFilePath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	cfg.RunAddr = validateAddress(cfg.RunAddr)
	cfg.GRPCAddr = validateAddress(cfg.GRPCAddr)
	cfg.BaseURL = validateBaseURL(cfg.BaseURL)

	return cfg, nil
}

// validateAddress дополняет адрес двоеточием, если указан только порт
func validateAddress(addr string) string {
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// validateBaseURL дополняет базовый URL схемой, если она отсутствует
func validateBaseURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}
