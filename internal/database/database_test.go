package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/insania/biology-module/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestDB запускает PostgreSQL в Docker-контейнере через testcontainers.
func setupTestDB(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("insania_test"),
		postgres.WithUsername("insania"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("BIO_DB_HOST", host)
	t.Setenv("BIO_DB_PORT", port.Port())
	t.Setenv("BIO_DB_NAME", "insania_test")
	t.Setenv("BIO_DB_USER", "insania")
	t.Setenv("BIO_DB_PASSWORD", "test-password")
	t.Setenv("BIO_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	return cfg
}

func TestMigrateURL(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: 5432, DBName: "bio", DBUser: "u", DBPassword: "p", DBSSLMode: "disable",
	}
	got := migrateURL(cfg)
	if !strings.HasPrefix(got, "pgx5://u:p@db:5432/bio") {
		t.Errorf("migrateURL() = %q, ожидался префикс pgx5://u:p@db:5432/bio", got)
	}
}

// TestMigrate проверяет применение миграций и начальные данные.
func TestMigrate(t *testing.T) {
	cfg := setupTestDB(t)
	logger := testLogger()

	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}
	// Повторное применение — ErrNoChange не считается ошибкой
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Повторный Migrate() вернул ошибку: %v", err)
	}

	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	counts := map[string]int{
		"c_races":      17,
		"c_nations":    57,
		"c_parameters": 8,
	}
	for table, want := range counts {
		var got int
		err := pool.QueryRow(ctx, "SELECT count(*) FROM insania_biology."+table).Scan(&got)
		if err != nil {
			t.Fatalf("Ошибка подсчёта строк %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s: %d строк, ожидали %d", table, got, want)
		}
	}

	var deleted int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM insania_biology.c_races WHERE date_deleted IS NOT NULL`).Scan(&deleted)
	if err != nil {
		t.Fatalf("Ошибка подсчёта удалённых рас: %v", err)
	}
	if deleted != 2 {
		t.Errorf("удалённых рас %d, ожидали 2", deleted)
	}

	// Журнал вызовов API создаётся пустым
	var logs int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM insania_logs_api_biology.r_logs_api_biology`).Scan(&logs)
	if err != nil {
		t.Fatalf("Ошибка подсчёта строк журнала: %v", err)
	}
	if logs != 0 {
		t.Errorf("журнал вызовов API: %d строк, ожидали 0", logs)
	}
}

// TestReadinessChecker проверяет ReadinessChecker.
func TestReadinessChecker(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()

	pool, err := Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	status, msg := NewReadinessChecker(pool).CheckReady()
	if status != "ok" {
		t.Errorf("CheckReady() status = %q, message = %q; ожидали ok", status, msg)
	}
}
