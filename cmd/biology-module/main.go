// Точка входа Biology Module — справочник рас и наций.
// Загружает конфигурацию (.env и переменные окружения), применяет миграции,
// подключается к PostgreSQL, собирает клиент файлового сервиса, сервисный
// слой и HTTP-сервер с опциональным JWT middleware и graceful shutdown.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/bigkaa/insania/biology-module/internal/api/handlers"
	"github.com/bigkaa/insania/biology-module/internal/api/middleware"
	"github.com/bigkaa/insania/biology-module/internal/api/openapi"
	"github.com/bigkaa/insania/biology-module/internal/cache"
	"github.com/bigkaa/insania/biology-module/internal/config"
	"github.com/bigkaa/insania/biology-module/internal/database"
	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/fileclient"
	"github.com/bigkaa/insania/biology-module/internal/repository"
	"github.com/bigkaa/insania/biology-module/internal/server"
	"github.com/bigkaa/insania/biology-module/internal/service"
)

const (
	serviceID         = "biology-module"
	jwksClientTimeout = 10 * time.Second
)

func main() {
	// 0. Необязательный .env (переменные окружения имеют приоритет)
	envErr := godotenv.Load()

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Biology Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)
	switch {
	case envErr == nil:
		logger.Info("Загружен файл .env")
	case errors.Is(envErr, fs.ErrNotExist):
		logger.Debug("Файл .env не найден, используются переменные окружения")
	default:
		logger.Warn("Ошибка чтения .env", slog.String("error", envErr.Error()))
	}

	// 3. Применение миграций БД
	if cfg.DBMigrate {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	raceRepo := repository.NewRaceRepository(pool)
	nationRepo := repository.NewNationRepository(pool)
	paramRepo := repository.NewParameterRepository(pool)

	// 6. Параметры и клиент файлового сервиса
	resolver := service.NewParameterResolver(paramRepo, logger)
	filesCache := cache.NewFileListCache(cfg.FilesCacheSize, cfg.FilesCacheTTL)
	aliases := fileclient.DefaultAliases()
	filesClient := fileclient.New(resolver, filesCache, fileclient.Config{
		Timeout: cfg.FilesTimeout,
		Aliases: aliases,
		FileTypeNames: map[model.Classification]string{
			model.ClassificationRaces:   cfg.FileTypeRaces,
			model.ClassificationNations: cfg.FileTypeNations,
		},
	}, logger)

	// 7. Services
	filesSvc := service.NewFilesService(filesClient, logger)
	aggregator := service.NewRaceNationAggregator(filesSvc, cfg.AggregateRaceLimit, cfg.AggregateNationLimit, logger)
	racesSvc := service.NewRacesService(raceRepo, aggregator, logger)
	nationsSvc := service.NewNationsService(raceRepo, nationRepo, logger)

	// 7.1 Журнал вызовов API — фоновая запись в r_logs_api_biology
	var apiLogger *service.APILogger
	if cfg.APILogEnabled {
		apiLogger = service.NewAPILogger(repository.NewLogRepository(pool), cfg.APILogBuffer, cfg.APILogWriteTimeout, logger)
		apiLogger.Start()
		defer apiLogger.Stop()
	}

	// 8. topologymetrics — PostgreSQL и файловый сервис (если ссылка задана)
	filesURL, _, err := resolver.Resolve(ctx, aliases.FilesBaseURL)
	if err != nil {
		logger.Warn("Не удалось получить ссылку на файловый сервис для мониторинга",
			slog.String("error", err.Error()),
		)
	}
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:       serviceID,
		Group:           cfg.DephealthGroup,
		PgConnURL:       cfg.DatabaseURL(),
		FilesURL:        filesURL,
		FilesHealthPath: cfg.DephealthFilesHealthPath,
		CheckInterval:   cfg.DephealthCheckInterval,
	}, pgDB, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		defer dephealthSvc.Stop()
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Middleware: request id, логирование, метрики, JWT (опционально),
	// журнал вызовов API, OpenAPI
	validator, err := middleware.NewRequestValidator(openapi.Spec, logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	middlewares := []func(next http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	}
	if cfg.JWKSURL != "" {
		jwtAuth, err := middleware.NewJWTAuth(
			cfg.JWKSURL,
			cfg.JWTIssuer,
			jwksClientTimeout,
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		middlewares = append(middlewares, middleware.WithExclusions(jwtAuth.Middleware(), "/health", "/metrics"))
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		logger.Warn("BIO_JWKS_URL не задан, аутентификация отключена")
	}
	if apiLogger != nil {
		middlewares = append(middlewares, middleware.WithExclusions(middleware.APILog(apiLogger, cfg.APILogMaxBody), "/health", "/metrics"))
	}
	middlewares = append(middlewares, validator.Middleware())

	// 10. HTTP-сервер
	srv := server.New(cfg, logger, server.Handlers{
		Races:   handlers.NewRacesHandler(racesSvc, logger),
		Nations: handlers.NewNationsHandler(nationsSvc, logger),
		Health:  handlers.NewHealthHandler(database.NewReadinessChecker(pool)),
	}, middlewares...)

	// 11. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Biology Module остановлен")
}
