// apilog.go — фоновая запись журнала вызовов API в БД.
//
// Обработчики только ставят запись в очередь (буферизованный канал) и не ждут БД.
// Единственный воркер пишет записи по одной. При переполнении очереди запись
// отбрасывается. Stop закрывает очередь и дожидается записи оставшихся элементов.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/repository"
)

// apiLogEntriesTotal — результат обработки записей журнала: written, failed, dropped.
var apiLogEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bio_api_log_entries_total",
	Help: "Количество записей журнала вызовов API по результату (written, failed, dropped).",
}, []string{"result"})

// APILogger — очередь записи журнала вызовов API.
type APILogger struct {
	repo         repository.LogRepository
	writeTimeout time.Duration
	logger       *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *model.LogAPI
	done   chan struct{}
}

// NewAPILogger создаёт очередь ёмкостью buffer (значения < 1 заменяются на 1).
func NewAPILogger(repo repository.LogRepository, buffer int, writeTimeout time.Duration, logger *slog.Logger) *APILogger {
	return &APILogger{
		repo:         repo,
		writeTimeout: writeTimeout,
		logger:       logger.With(slog.String("component", "api_logger")),
		queue:        make(chan *model.LogAPI, max(buffer, 1)),
	}
}

// Start запускает воркер. Вызывается один раз при старте приложения.
func (l *APILogger) Start() {
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		l.logger.Info("Запись журнала вызовов API запущена", slog.Int("buffer", cap(l.queue)))

		for entry := range l.queue {
			l.write(entry)
		}
		l.logger.Info("Запись журнала вызовов API остановлена")
	}()
}

// Queue ставит запись в очередь без ожидания.
// false — очередь переполнена или уже остановлена, запись отброшена.
func (l *APILogger) Queue(entry *model.LogAPI) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		apiLogEntriesTotal.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case l.queue <- entry:
		return true
	default:
		apiLogEntriesTotal.WithLabelValues("dropped").Inc()
		l.logger.Warn("Очередь журнала вызовов API переполнена, запись отброшена",
			slog.String("method", entry.Method),
		)
		return false
	}
}

// Stop закрывает очередь и ждёт, пока воркер запишет оставшиеся записи.
// Повторный и конкурентный вызов безопасны: каждый дожидается воркера.
func (l *APILogger) Stop() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	if l.done != nil {
		<-l.done
	}
}

func (l *APILogger) write(entry *model.LogAPI) {
	ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
	defer cancel()

	if err := l.repo.Create(ctx, entry); err != nil {
		apiLogEntriesTotal.WithLabelValues("failed").Inc()
		l.logger.Error("Ошибка записи журнала вызовов API",
			slog.String("method", entry.Method),
			slog.String("error", err.Error()),
		)
		return
	}
	apiLogEntriesTotal.WithLabelValues("written").Inc()
}
