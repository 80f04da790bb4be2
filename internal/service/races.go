package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/repository"
)

// Aggregator — сборка рас с нациями и файлами (реализуется RaceNationAggregator).
type Aggregator interface {
	Run(ctx context.Context, races []*model.Race) ([]model.RaceView, error)
}

// RacesService — списки рас.
type RacesService struct {
	repo       repository.RaceRepository
	aggregator Aggregator
	logger     *slog.Logger
}

// NewRacesService создаёт RacesService.
func NewRacesService(repo repository.RaceRepository, aggregator Aggregator, logger *slog.Logger) *RacesService {
	return &RacesService{
		repo:       repo,
		aggregator: aggregator,
		logger:     logger.With(slog.String("component", "races_service")),
	}
}

// List возвращает активные расы.
func (s *RacesService) List(ctx context.Context) ([]*model.Race, error) {
	races, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Ошибка получения списка рас", slog.String("error", err.Error()))
		return nil, err
	}
	return races, nil
}

// ListWithNations возвращает активные расы с активными нациями, у которых
// есть представительные файлы.
func (s *RacesService) ListWithNations(ctx context.Context) ([]model.RaceView, error) {
	races, err := s.repo.ListWithNations(ctx)
	if err != nil {
		s.logger.Error("Ошибка получения рас с нациями", slog.String("error", err.Error()))
		return nil, err
	}
	return s.aggregator.Run(ctx, races)
}
