// Пакет config — загрузка и валидация конфигурации Biology Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Biology Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8050)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	// Применять миграции при старте (по умолчанию true)
	DBMigrate bool

	// --- Файловый сервис ---

	// Таймаут одного HTTP-вызова к сервисам файлов и пользователей (по умолчанию 30s)
	FilesTimeout time.Duration
	// Время жизни записи кэша списков файлов (абсолютное, по умолчанию 24h)
	FilesCacheTTL time.Duration
	// Максимальное количество записей кэша списков файлов
	FilesCacheSize int
	// Наименования типов файлов в каталоге внешнего сервиса
	FileTypeRaces   string
	FileTypeNations string

	// --- Агрегация рас с нациями ---

	// Максимум одновременно обрабатываемых рас
	AggregateRaceLimit int
	// Максимум одновременных запросов файлов наций (общий на весь прогон)
	AggregateNationLimit int

	// --- Журнал вызовов API (r_logs_api_biology) ---

	// Включена ли запись журнала вызовов API
	APILogEnabled bool
	// Ёмкость очереди записей журнала
	APILogBuffer int
	// Таймаут записи одной строки журнала в БД
	APILogWriteTimeout time.Duration
	// Максимальный размер сохраняемого тела ответа, байт
	APILogMaxBody int

	// --- JWT (опционально) ---

	// URL JWKS endpoint. Пустое значение — аутентификация отключена.
	JWKSURL string
	// Ожидаемый issuer JWT (пустое значение — не проверяется)
	JWTIssuer string
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration
	// Путь health endpoint файлового сервиса
	DephealthFilesHealthPath string
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// BIO_PORT — порт HTTP-сервера (по умолчанию 8050)
	cfg.Port, err = getEnvInt("BIO_PORT", 8050)
	if err != nil {
		return nil, fmt.Errorf("BIO_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("BIO_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	// BIO_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("BIO_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("BIO_LOG_LEVEL: %w", err)
	}

	// BIO_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("BIO_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("BIO_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("BIO_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_HTTP_READ_TIMEOUT: %w", err)
	}
	// Запись должна пережить агрегацию с 30-секундными вызовами внешних сервисов
	cfg.HTTPWriteTimeout, err = getEnvDuration("BIO_HTTP_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("BIO_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("BIO_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// BIO_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("BIO_DB_HOST")
	if err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("BIO_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("BIO_DB_PORT: %w", err)
	}
	// BIO_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("BIO_DB_NAME")
	if err != nil {
		return nil, err
	}
	// BIO_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("BIO_DB_USER")
	if err != nil {
		return nil, err
	}
	// BIO_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("BIO_DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.DBSSLMode = getEnvDefault("BIO_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("BIO_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	cfg.DBMigrate, err = getEnvBool("BIO_DB_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("BIO_DB_MIGRATE: %w", err)
	}

	// --- Файловый сервис ---

	cfg.FilesTimeout, err = getEnvDurationPositive("BIO_FILES_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_FILES_TIMEOUT: %w", err)
	}
	cfg.FilesCacheTTL, err = getEnvDurationPositive("BIO_FILES_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("BIO_FILES_CACHE_TTL: %w", err)
	}
	cfg.FilesCacheSize, err = getEnvInt("BIO_FILES_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("BIO_FILES_CACHE_SIZE: %w", err)
	}
	if cfg.FilesCacheSize < 1 {
		return nil, fmt.Errorf("BIO_FILES_CACHE_SIZE: значение должно быть > 0")
	}
	cfg.FileTypeRaces = getEnvDefault("BIO_FILE_TYPE_RACES", "Races")
	cfg.FileTypeNations = getEnvDefault("BIO_FILE_TYPE_NATIONS", "Nations")

	// --- Агрегация ---

	cfg.AggregateRaceLimit, err = getEnvInt("BIO_AGGREGATE_RACE_LIMIT", 4)
	if err != nil {
		return nil, fmt.Errorf("BIO_AGGREGATE_RACE_LIMIT: %w", err)
	}
	cfg.AggregateNationLimit, err = getEnvInt("BIO_AGGREGATE_NATION_LIMIT", 4)
	if err != nil {
		return nil, fmt.Errorf("BIO_AGGREGATE_NATION_LIMIT: %w", err)
	}
	if cfg.AggregateRaceLimit < 1 || cfg.AggregateNationLimit < 1 {
		return nil, fmt.Errorf("BIO_AGGREGATE_*_LIMIT: значение должно быть > 0")
	}

	// --- Журнал вызовов API ---

	cfg.APILogEnabled, err = getEnvBool("BIO_API_LOG_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("BIO_API_LOG_ENABLED: %w", err)
	}
	cfg.APILogBuffer, err = getEnvInt("BIO_API_LOG_BUFFER", 1024)
	if err != nil {
		return nil, fmt.Errorf("BIO_API_LOG_BUFFER: %w", err)
	}
	if cfg.APILogBuffer < 1 {
		return nil, fmt.Errorf("BIO_API_LOG_BUFFER: значение должно быть > 0")
	}
	cfg.APILogWriteTimeout, err = getEnvDurationPositive("BIO_API_LOG_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_API_LOG_WRITE_TIMEOUT: %w", err)
	}
	cfg.APILogMaxBody, err = getEnvInt("BIO_API_LOG_MAX_BODY", 64*1024)
	if err != nil {
		return nil, fmt.Errorf("BIO_API_LOG_MAX_BODY: %w", err)
	}
	if cfg.APILogMaxBody < 0 {
		return nil, fmt.Errorf("BIO_API_LOG_MAX_BODY: значение не может быть отрицательным")
	}

	// --- JWT ---

	cfg.JWKSURL = os.Getenv("BIO_JWKS_URL")
	if cfg.JWKSURL != "" {
		if _, err := url.ParseRequestURI(cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("BIO_JWKS_URL: некорректный URL %q", cfg.JWKSURL)
		}
	}
	cfg.JWTIssuer = os.Getenv("BIO_JWT_ISSUER")
	cfg.JWKSRefreshInterval, err = getEnvDurationPositive("BIO_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BIO_JWKS_REFRESH_INTERVAL: %w", err)
	}
	cfg.JWTLeeway, err = getEnvDuration("BIO_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_JWT_LEEWAY: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("BIO_DEPHEALTH_GROUP", "insania")
	cfg.DephealthCheckInterval, err = getEnvDurationPositive("BIO_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BIO_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthFilesHealthPath = getEnvDefault("BIO_DEPHEALTH_FILES_HEALTH_PATH", "/health")

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL (для golang-migrate и лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
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

// getEnvDurationPositive — как getEnvDuration, но дополнительно требует значение > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
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
