// health.go — проверка задержек БД и кэша для /info/ping.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/storageapp/internal/repository"
)

// CachePinger — интерфейс замера задержки кэш-бэкенда (реализуется cache.Cache).
type CachePinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// HealthStatus — задержки зависимостей в секундах.
// Cache = -1 означает недоступный кэш-бэкенд: сервис при этом
// продолжает работать, запросы уходят напрямую в БД.
type HealthStatus struct {
	DB    float64 `json:"db"`
	Cache float64 `json:"cache"`
}

// HealthService — замер задержек БД и кэша.
type HealthService struct {
	fileRepo repository.FileRepository
	pinger   CachePinger
	logger   *slog.Logger
}

// NewHealthService создаёт сервис проверки зависимостей.
func NewHealthService(fileRepo repository.FileRepository, pinger CachePinger, logger *slog.Logger) *HealthService {
	return &HealthService{
		fileRepo: fileRepo,
		pinger:   pinger,
		logger:   logger.With(slog.String("component", "health_service")),
	}
}

// Ping замеряет задержку тривиального чтения БД и кэша.
// Ошибка БД фатальна для проверки; ошибка кэша — нет (деградация).
func (s *HealthService) Ping(ctx context.Context) (*HealthStatus, error) {
	dbLatency, err := s.fileRepo.Health(ctx)
	if err != nil {
		return nil, err
	}

	status := &HealthStatus{DB: dbLatency.Seconds()}

	cacheLatency, err := s.pinger.Ping(ctx)
	if err != nil {
		s.logger.Warn("Кэш-бэкенд недоступен", slog.String("error", err.Error()))
		status.Cache = -1
	} else {
		status.Cache = cacheLatency.Seconds()
	}

	return status, nil
}
