package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/repository"
)

// NationsService — списки наций.
type NationsService struct {
	races   repository.RaceRepository
	nations repository.NationRepository
	logger  *slog.Logger
}

// NewNationsService создаёт NationsService.
func NewNationsService(races repository.RaceRepository, nations repository.NationRepository, logger *slog.Logger) *NationsService {
	return &NationsService{
		races:   races,
		nations: nations,
		logger:  logger.With(slog.String("component", "nations_service")),
	}
}

// List возвращает активные нации расы.
// Проверки по порядку: раса не передана, не найдена, удалена.
func (s *NationsService) List(ctx context.Context, raceID *int64) ([]*model.Nation, error) {
	if raceID == nil {
		return nil, newError(ErrValidation, MsgEmptyRace)
	}

	race, err := s.races.GetByID(ctx, *raceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgNotFoundRace)
		}
		s.logger.Error("Ошибка получения расы",
			slog.Int64("race_id", *raceID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if !race.Active() {
		return nil, newError(ErrState, MsgDeletedRace)
	}

	nations, err := s.nations.ListByRace(ctx, race.ID)
	if err != nil {
		s.logger.Error("Ошибка получения списка наций",
			slog.Int64("race_id", race.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return nations, nil
}
