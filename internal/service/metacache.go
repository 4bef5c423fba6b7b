// metacache.go — per-instance LRU-кэш метаданных для скачивания.
// Обёртка над hashicorp/golang-lru/v2/expirable.
// Записи файлов после создания неизменяемы (нет редактирования и
// удаления), поэтому кэшированная запись не может устареть — TTL
// ограничивает только память.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/storageapp/internal/domain/model"
)

// Prometheus-метрики LRU-кэша метаданных.
var (
	metaCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_metacache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных скачивания.",
	})
	metaCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_metacache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных скачивания.",
	})
)

// MetadataCache — LRU-кэш записей файлов, ключ — владелец + идентификатор.
// Ключ включает владельца: чужой идентификатор никогда не попадает
// в запись другого аккаунта.
type MetadataCache struct {
	cache *expirable.LRU[string, *model.FileRecord]
}

// NewMetadataCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewMetadataCache(maxSize int, ttl time.Duration) *MetadataCache {
	return &MetadataCache{
		cache: expirable.NewLRU[string, *model.FileRecord](maxSize, nil, ttl),
	}
}

// Get возвращает запись из кэша по владельцу и идентификатору.
func (c *MetadataCache) Get(owner, identifier string) (*model.FileRecord, bool) {
	val, ok := c.cache.Get(metaKey(owner, identifier))
	if ok {
		metaCacheHitsTotal.Inc()
		return val, true
	}
	metaCacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет запись в кэш.
func (c *MetadataCache) Set(owner, identifier string, record *model.FileRecord) {
	c.cache.Add(metaKey(owner, identifier), record)
}

// metaKey строит ключ кэша из владельца и идентификатора.
func metaKey(owner, identifier string) string {
	return owner + "|" + identifier
}
