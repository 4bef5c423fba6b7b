// Пакет service — бизнес-логика StorageApp.
// files.go — оркестратор файловых операций: объединяет разбор
// идентификаторов, запись на диск, хранилище метаданных и кэш.
//
// Порядок внутри Upload фиксирован: валидация формы пути → инвалидация
// кэша владельца → запись байт на диск → вставка записи метаданных.
// Запись метаданных происходит только после успешной записи байт
// (write-then-record): запись без байт на диске невозможна, обратное —
// принятый риск осиротевшего файла при частичном сбое.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/storageapp/internal/cache"
	"github.com/bigkaa/storageapp/internal/domain/ident"
	"github.com/bigkaa/storageapp/internal/domain/model"
	"github.com/bigkaa/storageapp/internal/repository"
	"github.com/bigkaa/storageapp/internal/storage/filestore"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — файл не найден (в том числе чужой файл:
	// существование не раскрывается).
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidOrderBy — поле сортировки вне whitelist атрибутов записи.
	ErrInvalidOrderBy = errors.New("недопустимое поле сортировки")
)

// Prometheus-метрики файловых операций.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sa_uploads_total",
		Help: "Общее количество загрузок файлов (по статусу).",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sa_upload_bytes_total",
		Help: "Общее количество загруженных байт.",
	})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sa_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sa_search_duration_seconds",
		Help:    "Длительность поисковых запросов (включая попадания в кэш).",
		Buckets: prometheus.DefBuckets,
	})
)

// ResultCache — интерфейс координатора кэша list/search.
// Реализуется *cache.Cache; в тестах подменяется моком.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
	DeleteByPattern(ctx context.Context, pattern string)
}

// FileService — оркестратор операций upload / download / list / search.
// Все операции принимают идентификатор владельца, полученный из
// проверенного токена, и никогда не выходят за его пределы.
type FileService struct {
	fileRepo repository.FileRepository
	cache    ResultCache
	writer   *filestore.Writer
	meta     *MetadataCache
	logger   *slog.Logger
}

// NewFileService создаёт файловый сервис.
func NewFileService(
	fileRepo repository.FileRepository,
	resultCache ResultCache,
	writer *filestore.Writer,
	meta *MetadataCache,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		cache:    resultCache,
		writer:   writer,
		meta:     meta,
		logger:   logger.With(slog.String("component", "file_service")),
	}
}

// Upload принимает поток байт и целевой путь, пишет файл на диск
// и регистрирует запись метаданных.
//
// Кэш владельца инвалидируется до записи: неудачная загрузка приводит
// к лишней инвалидации, что безопасно — промах просто пересчитается.
func (s *FileService) Upload(ctx context.Context, owner string, reader io.Reader, uploadName, target string) (*model.FileRecord, error) {
	// 1. Валидация формы пути до любого I/O
	if err := filestore.ValidateTarget(target); err != nil {
		uploadsTotal.WithLabelValues("invalid_path").Inc()
		return nil, err
	}

	// 2. Инвалидация кэша владельца: список + все поисковые записи
	s.cache.Delete(ctx, cache.ListKey(owner))
	s.cache.DeleteByPattern(ctx, cache.SearchPattern(owner))

	// 3. Запись байт на диск
	res, err := s.writer.Save(reader, target, uploadName)
	if err != nil {
		uploadsTotal.WithLabelValues("write_error").Inc()
		return nil, fmt.Errorf("запись файла: %w", err)
	}

	// 4. Вставка записи метаданных (только после успешной записи байт)
	record := &model.FileRecord{
		ID:             uuid.New().String(),
		Name:           res.Name,
		Path:           res.Dir,
		CreatedBy:      owner,
		IsDownloadable: true,
		Size:           res.Size,
	}
	if err := s.fileRepo.Insert(ctx, record); err != nil {
		// Байты уже на диске — остаётся осиротевший файл без записи.
		// Принятое ограничение, фиксируем в логе и отдаём ошибку.
		s.logger.Error("Файл записан, но вставка метаданных не удалась — осиротевший файл",
			slog.String("path", res.FullPath),
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		uploadsTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("регистрация файла: %w", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(res.Size))

	s.logger.Info("Файл загружен",
		slog.String("file_id", record.ID),
		slog.String("name", record.Name),
		slog.String("path", record.Path),
		slog.Int64("size", record.Size),
	)

	return record, nil
}

// Download разрешает идентификатор (UUID или путь) и возвращает запись
// файла для выдачи. Поиск ограничен владельцем: чужой UUID или путь
// дают ErrNotFound без различия "нет файла" / "не ваш файл".
func (s *FileService) Download(ctx context.Context, owner, identifier string) (*model.FileRecord, error) {
	ref, err := ident.Parse(identifier)
	if err != nil {
		downloadsTotal.WithLabelValues("invalid_id").Inc()
		return nil, err
	}

	// Проверяем LRU-кэш метаданных
	if record, ok := s.meta.Get(owner, identifier); ok {
		downloadsTotal.WithLabelValues("success").Inc()
		return record, nil
	}

	record, err := s.fileRepo.FindForDownload(ctx, owner, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		downloadsTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("получение записи файла: %w", err)
	}

	s.meta.Set(owner, identifier, record)
	downloadsTotal.WithLabelValues("success").Inc()

	return record, nil
}

// OpenFile открывает физический файл записи для выдачи клиенту.
// Вызывающий обязан закрыть файл.
func (s *FileService) OpenFile(record *model.FileRecord) (*os.File, error) {
	f, err := s.writer.Open(record.FullPath())
	if err != nil {
		// Запись есть, байтов нет: рассинхронизация хранилища и диска
		s.logger.Error("Запись метаданных без файла на диске",
			slog.String("file_id", record.ID),
			slog.String("path", record.FullPath()),
			slog.String("error", err.Error()),
		)
		return nil, ErrNotFound
	}
	return f, nil
}

// List возвращает список файлов владельца через сквозной кэш.
// Попадание в кэш не трогает хранилище метаданных; промах читает
// хранилище и заполняет кэш как побочный эффект.
func (s *FileService) List(ctx context.Context, owner string) (*model.FilesList, error) {
	key := cache.ListKey(owner)

	if data, ok := s.cache.Get(ctx, key); ok {
		result := &model.FilesList{}
		if err := json.Unmarshal(data, result); err == nil {
			return result, nil
		}
		// Непарсящаяся запись кэша — трактуем как промах
		s.logger.Warn("Повреждённая запись кэша списка", slog.String("key", key))
	}

	files, err := s.fileRepo.ListByOwner(ctx, owner, 0, repository.DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("получение списка файлов: %w", err)
	}
	if files == nil {
		files = []*model.FileRecord{}
	}

	result := &model.FilesList{AccountID: owner, Files: files}
	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return result, nil
}

// Search выполняет поиск файлов владельца через сквозной кэш.
// order_by валидируется против whitelist до обращения к хранилищу:
// поле интерполируется в SQL и любое чужое значение отбрасывается.
func (s *FileService) Search(ctx context.Context, owner string, params repository.SearchParams) (*model.SearchResult, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	if params.OrderBy == "" {
		params.OrderBy = "name"
	}
	if !repository.ValidOrderBy(params.OrderBy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderBy, params.OrderBy)
	}

	key := cache.SearchKey(owner, params.Path, params.Extension, params.OrderBy, params.Limit)

	if data, ok := s.cache.Get(ctx, key); ok {
		result := &model.SearchResult{}
		if err := json.Unmarshal(data, result); err == nil {
			return result, nil
		}
		s.logger.Warn("Повреждённая запись кэша поиска", slog.String("key", key))
	}

	matches, err := s.fileRepo.Search(ctx, owner, params)
	if err != nil {
		return nil, fmt.Errorf("поиск файлов: %w", err)
	}
	if matches == nil {
		matches = []*model.FileRecord{}
	}

	result := &model.SearchResult{Matches: matches}
	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return result, nil
}
