package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// ParameterRepository — доступ к таблице параметров c_parameters.
type ParameterRepository interface {
	// GetByAlias возвращает активный параметр по псевдониму или ErrNotFound.
	GetByAlias(ctx context.Context, alias string) (*model.Parameter, error)
}

type parameterRepo struct {
	db DBTX
}

// NewParameterRepository создаёт репозиторий параметров.
func NewParameterRepository(db DBTX) ParameterRepository {
	return &parameterRepo{db: db}
}

func (r *parameterRepo) GetByAlias(ctx context.Context, alias string) (*model.Parameter, error) {
	query := `SELECT id, name, alias, value, date_deleted
		FROM insania_biology.c_parameters
		WHERE alias = $1 AND date_deleted IS NULL`

	p := &model.Parameter{}
	err := r.db.QueryRow(ctx, query, alias).Scan(&p.ID, &p.Name, &p.Alias, &p.Value, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения параметра %q: %w", alias, err)
	}
	return p, nil
}
