package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// raceColumns — столбцы c_races для SELECT-запросов.
const raceColumns = `id, name, alias, description, max_age, date_deleted`

// nationColumns — столбцы c_nations для SELECT-запросов.
const nationColumns = `id, name, alias, description, language_for_personal_names, race_id, date_deleted`

// RaceRepository — доступ к расам.
type RaceRepository interface {
	// List возвращает активные расы, упорядоченные по ID.
	List(ctx context.Context) ([]*model.Race, error)
	// GetByID возвращает расу по ID (включая удалённые) или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Race, error)
	// ListWithNations возвращает активные расы с активными нациями.
	ListWithNations(ctx context.Context) ([]*model.Race, error)
}

// NationRepository — доступ к нациям.
type NationRepository interface {
	// ListByRace возвращает активные нации расы, упорядоченные по ID.
	ListByRace(ctx context.Context, raceID int64) ([]*model.Nation, error)
}

type raceRepo struct {
	db DBTX
}

// NewRaceRepository создаёт репозиторий рас.
func NewRaceRepository(db DBTX) RaceRepository {
	return &raceRepo{db: db}
}

func (r *raceRepo) List(ctx context.Context) ([]*model.Race, error) {
	query := fmt.Sprintf(`SELECT %s FROM insania_biology.c_races
		WHERE date_deleted IS NULL ORDER BY id`, raceColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка рас: %w", err)
	}
	defer rows.Close()

	var result []*model.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, race)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации рас: %w", err)
	}
	return result, nil
}

func (r *raceRepo) GetByID(ctx context.Context, id int64) (*model.Race, error) {
	query := fmt.Sprintf(`SELECT %s FROM insania_biology.c_races WHERE id = $1`, raceColumns)

	race, err := scanRace(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return race, nil
}

// ListWithNations загружает расы и нации двумя запросами и раскладывает
// нации по расам в памяти.
func (r *raceRepo) ListWithNations(ctx context.Context) ([]*model.Race, error) {
	races, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return races, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM insania_biology.c_nations
		WHERE date_deleted IS NULL ORDER BY race_id, id`, nationColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка наций: %w", err)
	}
	defer rows.Close()

	var nations []*model.Nation
	for rows.Next() {
		n, err := scanNation(rows)
		if err != nil {
			return nil, err
		}
		nations = append(nations, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации наций: %w", err)
	}

	attachNations(races, nations)
	return races, nil
}

// attachNations раскладывает нации по их расам. Нации удалённых
// (отсутствующих в races) рас отбрасываются.
func attachNations(races []*model.Race, nations []*model.Nation) {
	byID := make(map[int64]*model.Race, len(races))
	for _, race := range races {
		race.Nations = race.Nations[:0]
		byID[race.ID] = race
	}
	for _, n := range nations {
		race, ok := byID[n.RaceID]
		if !ok {
			continue
		}
		race.Nations = append(race.Nations, *n)
	}
}

type nationRepo struct {
	db DBTX
}

// NewNationRepository создаёт репозиторий наций.
func NewNationRepository(db DBTX) NationRepository {
	return &nationRepo{db: db}
}

func (r *nationRepo) ListByRace(ctx context.Context, raceID int64) ([]*model.Nation, error) {
	query := fmt.Sprintf(`SELECT %s FROM insania_biology.c_nations
		WHERE race_id = $1 AND date_deleted IS NULL ORDER BY id`, nationColumns)

	rows, err := r.db.Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения наций расы %d: %w", raceID, err)
	}
	defer rows.Close()

	var result []*model.Nation
	for rows.Next() {
		n, err := scanNation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации наций: %w", err)
	}
	return result, nil
}

func scanRace(row pgx.Row) (*model.Race, error) {
	race := &model.Race{}
	if err := row.Scan(
		&race.ID, &race.Name, &race.Alias, &race.Description, &race.MaxAge, &race.DeletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка сканирования расы: %w", err)
	}
	return race, nil
}

func scanNation(row pgx.Row) (*model.Nation, error) {
	n := &model.Nation{}
	if err := row.Scan(
		&n.ID, &n.Name, &n.Alias, &n.Description, &n.LanguageForPersonalNames, &n.RaceID, &n.DeletedAt,
	); err != nil {
		return nil, fmt.Errorf("ошибка сканирования нации: %w", err)
	}
	return n, nil
}
