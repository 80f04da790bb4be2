package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/insania/biology-module/internal/repository"
)

// ParameterResolver — разрешение псевдонимов параметров в значения.
// Не кэширует: кэшированием занимаются вызывающие.
type ParameterResolver struct {
	repo   repository.ParameterRepository
	logger *slog.Logger
}

// NewParameterResolver создаёт ParameterResolver.
func NewParameterResolver(repo repository.ParameterRepository, logger *slog.Logger) *ParameterResolver {
	return &ParameterResolver{
		repo:   repo,
		logger: logger.With(slog.String("component", "parameter_resolver")),
	}
}

// Resolve возвращает значение параметра. ok=false — параметр отсутствует,
// удалён или не имеет значения.
func (r *ParameterResolver) Resolve(ctx context.Context, alias string) (string, bool, error) {
	p, err := r.repo.GetByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		r.logger.Error("Ошибка получения параметра",
			slog.String("alias", alias),
			slog.String("error", err.Error()),
		)
		return "", false, err
	}
	if p.Value == nil || strings.TrimSpace(*p.Value) == "" {
		return "", false, nil
	}
	return *p.Value, true, nil
}

// Require возвращает значение обязательного параметра или ErrNotFoundParameter.
func (r *ParameterResolver) Require(ctx context.Context, alias string) (string, error) {
	val, ok, err := r.Resolve(ctx, alias)
	if err != nil {
		return "", err
	}
	if !ok {
		r.logger.Error("Не найден параметр", slog.String("alias", alias))
		return "", fmt.Errorf("%w: %s", ErrNotFoundParameter, alias)
	}
	return val, nil
}
