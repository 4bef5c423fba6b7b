package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения (очистка через t.Setenv).
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"SA_DB_HOST":     "localhost",
		"SA_DB_NAME":     "storageapp",
		"SA_DB_USER":     "storageapp",
		"SA_DB_PASSWORD": "secret",
		"SA_JWT_SECRET":  "jwt-secret",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, ожидается localhost:6379", cfg.RedisAddr)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, ожидается 15m", cfg.CacheTTL)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, ожидается 1h", cfg.TokenTTL)
	}
	if cfg.UploadBufSize != 32*1024 {
		t.Errorf("UploadBufSize = %d, ожидается 32768", cfg.UploadBufSize)
	}
	if cfg.MetaCacheSize != 1024 {
		t.Errorf("MetaCacheSize = %d, ожидается 1024", cfg.MetaCacheSize)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["SA_PORT"] = "8085"
	envs["SA_LOG_LEVEL"] = "debug"
	envs["SA_LOG_FORMAT"] = "text"
	envs["SA_DB_PORT"] = "5433"
	envs["SA_DB_SSL_MODE"] = "require"
	envs["SA_REDIS_ADDR"] = "redis:6380"
	envs["SA_REDIS_DB"] = "2"
	envs["SA_CACHE_TTL"] = "30m"
	envs["SA_TOKEN_TTL"] = "12h"
	envs["SA_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8085 {
		t.Errorf("Port = %d, ожидается 8085", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.RedisAddr != "redis:6380" {
		t.Errorf("RedisAddr = %q, ожидается redis:6380", cfg.RedisAddr)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, ожидается 2", cfg.RedisDB)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, ожидается 30m", cfg.CacheTTL)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %v, ожидается 12h", cfg.TokenTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	required := []string{"SA_DB_HOST", "SA_DB_NAME", "SA_DB_USER", "SA_DB_PASSWORD", "SA_JWT_SECRET"}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			// Очищаем отсутствующую переменную на случай её наличия в окружении
			t.Setenv(missing, "")
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() без %s должен вернуть ошибку", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"нечисловой порт", "SA_PORT", "abc"},
		{"недопустимый уровень логов", "SA_LOG_LEVEL", "verbose"},
		{"недопустимый формат логов", "SA_LOG_FORMAT", "xml"},
		{"недопустимый режим SSL", "SA_DB_SSL_MODE", "maybe"},
		{"некорректная длительность", "SA_CACHE_TTL", "15 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен вернуть ошибку", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: 5432, DBName: "storageapp",
		DBUser: "app", DBPassword: "pw", DBSSLMode: "disable",
	}

	dsn := cfg.DatabaseDSN()
	for _, part := range []string{"host=db", "port=5432", "dbname=storageapp", "user=app", "password=pw", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN %q не содержит %q", dsn, part)
		}
	}

	url := cfg.DatabaseURL()
	if url != "postgres://app:pw@db:5432/storageapp?sslmode=disable" {
		t.Errorf("DatabaseURL = %q", url)
	}
}
