// Пакет cache — координатор Redis-кэша списков и результатов поиска.
// Кэш ускоряет list/search и инвалидируется при загрузке файла владельцем.
// Недоступность Redis никогда не доходит до клиента: любая ошибка
// бэкенда трактуется как промах, запрос уходит в хранилище метаданных.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_cache_hits_total",
		Help: "Общее количество попаданий в Redis-кэш.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_cache_misses_total",
		Help: "Общее количество промахов Redis-кэша.",
	})
	cacheErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_cache_errors_total",
		Help: "Количество ошибок обращения к Redis (деградация в промах).",
	})
)

// Cache — обёртка над Redis-клиентом с политикой "ошибка == промах".
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New создаёт координатор кэша.
// ttl == 0 — записи живут до явной инвалидации.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Get возвращает значение по ключу.
// Отсутствие ключа и ошибка бэкенда неразличимы для вызывающего кода —
// оба случая дают (nil, false).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheErrorsTotal.Inc()
			c.logger.Warn("Ошибка чтения из Redis, деградация в промах",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	return val, true
}

// Set сохраняет значение по ключу. Ошибка записи не влияет на запрос:
// отсутствие записи в кэше — всегда валидное состояние.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		cacheErrorsTotal.Inc()
		c.logger.Warn("Ошибка записи в Redis",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Delete удаляет ключи. Best-effort: при недоступном Redis в кэше
// не может быть и устаревших записей, поэтому ошибка только логируется.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		cacheErrorsTotal.Inc()
		c.logger.Warn("Ошибка удаления ключей Redis",
			slog.Int("keys", len(keys)),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteByPattern удаляет все ключи, подходящие под шаблон.
// Используется для инвалидации всех поисковых записей владельца.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) {
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		cacheErrorsTotal.Inc()
		c.logger.Warn("Ошибка поиска ключей Redis по шаблону",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()),
		)
		return
	}
	c.Delete(ctx, keys...)
}

// Ключ и значение пробы Ping. Ключ с префиксом сервиса: Redis может
// быть общим для нескольких приложений, голый "testkey" рискует
// столкнуться с чужим.
const (
	pingKey   = "storageapp:testkey"
	pingValue = "testvalue"
)

// Ping записывает тестовый ключ и замеряет длительность его чтения.
// Используется health-check endpoint'ом /info/ping.
func (c *Cache) Ping(ctx context.Context) (time.Duration, error) {
	if err := c.client.Set(ctx, pingKey, pingValue, 5*time.Second).Err(); err != nil {
		return 0, fmt.Errorf("ошибка записи тестового ключа: %w", err)
	}

	start := time.Now()
	val, err := c.client.Get(ctx, pingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения тестового ключа: %w", err)
	}
	if val != pingValue {
		return 0, fmt.Errorf("неожиданное значение тестового ключа: %q", val)
	}

	return time.Since(start), nil
}

// --- Ключи кэша ---

// ListKey — ключ кэша списка файлов владельца.
func ListKey(owner string) string {
	return "files_" + owner
}

// SearchKey — детерминированный ключ кэша поискового запроса:
// одинаковые параметры всегда дают один ключ.
func SearchKey(owner, path, ext, orderBy string, limit int) string {
	return fmt.Sprintf("search-user:%s-path:%s-ext:%s-ord:%s-limit:%d",
		owner, path, ext, orderBy, limit)
}

// SearchPattern — шаблон всех поисковых ключей владельца.
// Инвалидация по шаблону намеренно грубая: допустимо удалить больше,
// чем строго необходимо, но никогда меньше.
func SearchPattern(owner string) string {
	return "search-user:" + owner + "*"
}
