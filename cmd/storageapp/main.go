// Точка входа StorageApp — сервис файлового хранилища.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL
// и Redis, собирает сервисный слой и API handlers, запускает
// topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/storageapp/internal/api/handlers"
	"github.com/bigkaa/storageapp/internal/api/middleware"
	"github.com/bigkaa/storageapp/internal/cache"
	"github.com/bigkaa/storageapp/internal/config"
	"github.com/bigkaa/storageapp/internal/database"
	"github.com/bigkaa/storageapp/internal/repository"
	"github.com/bigkaa/storageapp/internal/server"
	"github.com/bigkaa/storageapp/internal/service"
	"github.com/bigkaa/storageapp/internal/storage/filestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("StorageApp запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Redis — кэш результатов list/search.
	// Недоступность Redis не фатальна: все операции кэша деградируют
	// в промах, запросы уходят напрямую в БД.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis недоступен при старте, кэш работает в режиме деградации",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("Подключение к Redis установлено", slog.String("addr", cfg.RedisAddr))
	}
	cancelPing()

	// 6. Repositories
	fileRepo := repository.NewFileRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)

	// 7. Кэши и файловое хранилище
	resultCache := cache.New(redisClient, cfg.CacheTTL, logger)
	metaCache := service.NewMetadataCache(cfg.MetaCacheSize, cfg.MetaCacheTTL)
	writer := filestore.New(cfg.UploadBufSize)

	// 8. Services
	fileSvc := service.NewFileService(fileRepo, resultCache, writer, metaCache, logger)
	authSvc := service.NewAuthService(accountRepo, []byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	healthSvc := service.NewHealthService(fileRepo, resultCache, logger)

	// 9. Readiness checker и handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	apiHandler := handlers.NewAPIHandler(fileSvc, authSvc, healthSvc, healthHandler, logger)

	// 10. JWT middleware. Открытые пути: регистрация и выпуск токена,
	// health endpoints и метрики.
	jwtAuth := middleware.NewJWTAuth(
		[]byte(cfg.JWTSecret),
		cfg.JWTLeeway,
		[]string{"/api/users", "/info/ping", "/health", "/metrics"},
		logger,
	)

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"storageapp",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			defer dephealthSvc.Stop()
		}
	}

	// 12. HTTP-сервер: метрики → логирование → JWT
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		jwtAuth.Middleware(),
	)

	// 13. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("StorageApp остановлен")
}
