// Пакет config — загрузка и валидация конфигурации StorageApp
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации StorageApp.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- Redis ---

	// Адрес Redis (host:port)
	RedisAddr string
	// Пароль Redis (пустой — без аутентификации)
	RedisPassword string
	// Номер базы Redis
	RedisDB int
	// TTL записей кэша list/search
	CacheTTL time.Duration

	// --- Аутентификация ---

	// Секрет подписи токенов HS256 (обязательный)
	JWTSecret string
	// Срок жизни токена доступа
	TokenTTL time.Duration
	// Допустимое отклонение времени при проверке токена
	JWTLeeway time.Duration

	// --- Файловое хранилище ---

	// Размер буфера копирования при записи файлов (байты)
	UploadBufSize int

	// --- LRU-кэш метаданных скачивания ---

	// Максимум записей
	MetaCacheSize int
	// TTL записи
	MetaCacheTTL time.Duration

	// --- Dephealth ---

	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SA_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("SA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SA_PORT: %w", err)
	}

	// SA_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SA_LOG_LEVEL: %w", err)
	}

	// SA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// SA_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("SA_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_HTTP_READ_TIMEOUT: %w", err)
	}

	// SA_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("SA_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// SA_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("SA_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// SA_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("SA_DB_HOST")
	if err != nil {
		return nil, err
	}

	// SA_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("SA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SA_DB_PORT: %w", err)
	}

	// SA_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("SA_DB_NAME")
	if err != nil {
		return nil, err
	}

	// SA_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("SA_DB_USER")
	if err != nil {
		return nil, err
	}

	// SA_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("SA_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// SA_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("SA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Redis ---

	// SA_REDIS_ADDR — адрес Redis (по умолчанию localhost:6379)
	cfg.RedisAddr = getEnvDefault("SA_REDIS_ADDR", "localhost:6379")

	// SA_REDIS_PASSWORD — пароль Redis (опционально)
	cfg.RedisPassword = getEnvDefault("SA_REDIS_PASSWORD", "")

	// SA_REDIS_DB — номер базы Redis (по умолчанию 0)
	cfg.RedisDB, err = getEnvInt("SA_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("SA_REDIS_DB: %w", err)
	}

	// SA_CACHE_TTL — TTL записей кэша list/search (по умолчанию 15m)
	cfg.CacheTTL, err = getEnvDuration("SA_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SA_CACHE_TTL: %w", err)
	}

	// --- Аутентификация ---

	// SA_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("SA_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// SA_TOKEN_TTL — срок жизни токена (по умолчанию 1h)
	cfg.TokenTTL, err = getEnvDuration("SA_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SA_TOKEN_TTL: %w", err)
	}

	// SA_JWT_LEEWAY — отклонение времени при проверке (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("SA_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_JWT_LEEWAY: %w", err)
	}

	// --- Файловое хранилище ---

	// SA_UPLOAD_BUF_SIZE — буфер копирования (по умолчанию 32768)
	cfg.UploadBufSize, err = getEnvInt("SA_UPLOAD_BUF_SIZE", 32*1024)
	if err != nil {
		return nil, fmt.Errorf("SA_UPLOAD_BUF_SIZE: %w", err)
	}

	// --- LRU-кэш метаданных скачивания ---

	// SA_META_CACHE_SIZE — максимум записей (по умолчанию 1024)
	cfg.MetaCacheSize, err = getEnvInt("SA_META_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("SA_META_CACHE_SIZE: %w", err)
	}

	// SA_META_CACHE_TTL — TTL записи (по умолчанию 5m)
	cfg.MetaCacheTTL, err = getEnvDuration("SA_META_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SA_META_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	// SA_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("SA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// SA_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию storage)
	cfg.DephealthGroup = getEnvDefault("SA_DEPHEALTH_GROUP", "storage")

	// --- Graceful shutdown ---

	// SA_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("SA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для migrate и dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
