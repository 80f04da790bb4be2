// aggregator.go — сборка рас с нациями и представительными файлами.
//
// Параллелизм ограничен двумя семафорами, создаваемыми на каждый прогон:
//   - race — число одновременно обрабатываемых рас;
//   - nation — число одновременных запросов файлов наций, общий для всех рас прогона.
//
// Внутри расы сначала запрашиваются файлы всех наций, затем файл самой расы.
// Раса без файла отбрасывается целиком вместе с нациями, нация без файла
// отбрасывается. Первая ошибка отменяет весь прогон.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// Prometheus-метрики агрегации.
var (
	aggregateInflight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bio_aggregate_inflight",
		Help: "Количество выполняющихся задач агрегации по пулам (race, nation).",
	}, []string{"pool"})

	aggregateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bio_aggregate_duration_seconds",
		Help:    "Длительность агрегации рас с нациями.",
		Buckets: prometheus.DefBuckets,
	})
)

// FileLookup — поиск представительных файлов (реализуется FilesService).
type FileLookup interface {
	Initialize(ctx context.Context) error
	GetRaceFile(ctx context.Context, raceID int64) (string, bool, error)
	GetNationFile(ctx context.Context, nationID int64) (string, bool, error)
}

// RaceNationAggregator — конкурентная сборка RaceView.
type RaceNationAggregator struct {
	files       FileLookup
	raceLimit   int64
	nationLimit int64
	logger      *slog.Logger
}

// NewRaceNationAggregator создаёт агрегатор.
// raceLimit и nationLimit — ёмкости пулов (значения < 1 заменяются на 1).
func NewRaceNationAggregator(files FileLookup, raceLimit, nationLimit int, logger *slog.Logger) *RaceNationAggregator {
	return &RaceNationAggregator{
		files:       files,
		raceLimit:   int64(max(raceLimit, 1)),
		nationLimit: int64(max(nationLimit, 1)),
		logger:      logger.With(slog.String("component", "race_nation_aggregator")),
	}
}

// Run собирает расы с нациями и файлами. Порядок результата не гарантируется.
func (a *RaceNationAggregator) Run(ctx context.Context, races []*model.Race) ([]model.RaceView, error) {
	start := time.Now()
	defer func() {
		aggregateDuration.Observe(time.Since(start).Seconds())
	}()

	// Аутентификация и каталог типов — один раз до распараллеливания
	if err := a.files.Initialize(ctx); err != nil {
		a.logger.Error("Ошибка инициализации файлового сервиса", slog.String("error", err.Error()))
		return nil, err
	}

	if len(races) == 0 {
		return []model.RaceView{}, nil
	}

	raceSem := semaphore.NewWeighted(a.raceLimit)
	nationSem := semaphore.NewWeighted(a.nationLimit)

	slots := make([]*model.RaceView, len(races))
	g, gctx := errgroup.WithContext(ctx)

	for i, race := range races {
		if race == nil {
			continue
		}
		g.Go(func() error {
			if err := raceSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer raceSem.Release(1)

			aggregateInflight.WithLabelValues("race").Inc()
			defer aggregateInflight.WithLabelValues("race").Dec()

			view, err := a.buildRace(gctx, race, nationSem)
			if err != nil {
				return err
			}
			slots[i] = view
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("Ошибка агрегации рас с нациями", slog.String("error", err.Error()))
		return nil, err
	}

	result := make([]model.RaceView, 0, len(races))
	for _, view := range slots {
		if view != nil {
			result = append(result, *view)
		}
	}

	a.logger.Debug("Агрегация рас с нациями завершена",
		slog.Int("races_in", len(races)),
		slog.Int("races_out", len(result)),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// buildRace собирает одну расу. nil без ошибки — у расы нет файла.
func (a *RaceNationAggregator) buildRace(ctx context.Context, race *model.Race, nationSem *semaphore.Weighted) (*model.RaceView, error) {
	slots := make([]*model.NationView, len(race.Nations))
	g, gctx := errgroup.WithContext(ctx)

	for j := range race.Nations {
		nation := &race.Nations[j]
		g.Go(func() error {
			if err := nationSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer nationSem.Release(1)

			aggregateInflight.WithLabelValues("nation").Inc()
			defer aggregateInflight.WithLabelValues("nation").Dec()

			file, ok, err := a.files.GetNationFile(gctx, nation.ID)
			if err != nil {
				return err
			}
			if !ok || strings.TrimSpace(file) == "" {
				return nil
			}
			slots[j] = &model.NationView{
				ID:          nation.ID,
				Name:        nation.Name,
				Description: nation.Description,
				File:        file,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Файл расы проверяется только после всех наций
	file, ok, err := a.files.GetRaceFile(ctx, race.ID)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(file) == "" {
		return nil, nil
	}

	nations := make([]model.NationView, 0, len(slots))
	for _, n := range slots {
		if n != nil {
			nations = append(nations, *n)
		}
	}

	return &model.RaceView{
		ID:          race.ID,
		Name:        race.Name,
		Description: race.Description,
		File:        file,
		Nations:     nations,
	}, nil
}
