package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/repository"
)

// --- Mock repositories ---

type mockRaceRepo struct {
	listFn            func(ctx context.Context) ([]*model.Race, error)
	getByIDFn         func(ctx context.Context, id int64) (*model.Race, error)
	listWithNationsFn func(ctx context.Context) ([]*model.Race, error)
}

func (m *mockRaceRepo) List(ctx context.Context) ([]*model.Race, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRaceRepo) GetByID(ctx context.Context, id int64) (*model.Race, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockRaceRepo) ListWithNations(ctx context.Context) ([]*model.Race, error) {
	if m.listWithNationsFn != nil {
		return m.listWithNationsFn(ctx)
	}
	return nil, nil
}

type mockNationRepo struct {
	listByRaceFn func(ctx context.Context, raceID int64) ([]*model.Nation, error)
}

func (m *mockNationRepo) ListByRace(ctx context.Context, raceID int64) ([]*model.Nation, error) {
	if m.listByRaceFn != nil {
		return m.listByRaceFn(ctx, raceID)
	}
	return nil, nil
}

type mockParamRepo struct {
	params map[string]*model.Parameter
	err    error
}

func (m *mockParamRepo) GetByAlias(_ context.Context, alias string) (*model.Parameter, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.params[alias]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type mockCatalog struct {
	initErr error
	files   map[model.Classification]map[int64][]model.FileItem
	err     error
}

func (m *mockCatalog) Initialize(context.Context) error {
	return m.initErr
}

func (m *mockCatalog) GetFilesFor(_ context.Context, id int64, c model.Classification) ([]model.FileItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.files[c][id], nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// --- ParameterResolver ---

func TestParameterResolver(t *testing.T) {
	repo := &mockParamRepo{params: map[string]*model.Parameter{
		"base":  {Alias: "base", Value: strPtr("http://files")},
		"empty": {Alias: "empty", Value: strPtr("  ")},
		"null":  {Alias: "null"},
	}}
	r := NewParameterResolver(repo, testLogger())
	ctx := context.Background()

	if v, ok, err := r.Resolve(ctx, "base"); err != nil || !ok || v != "http://files" {
		t.Errorf("Resolve(base) = %q, %v, %v", v, ok, err)
	}
	for _, alias := range []string{"empty", "null", "missing"} {
		if _, ok, err := r.Resolve(ctx, alias); err != nil || ok {
			t.Errorf("Resolve(%s): ok = %v, err = %v; ожидалось ok=false без ошибки", alias, ok, err)
		}
	}
	if _, err := r.Require(ctx, "missing"); !errors.Is(err, ErrNotFoundParameter) {
		t.Errorf("Require(missing): ожидалась ErrNotFoundParameter, получено %v", err)
	}

	dbErr := errors.New("соединение потеряно")
	r = NewParameterResolver(&mockParamRepo{err: dbErr}, testLogger())
	if _, _, err := r.Resolve(ctx, "base"); !errors.Is(err, dbErr) {
		t.Errorf("ожидалась ошибка репозитория, получено %v", err)
	}
}

// --- FilesService ---

func TestFilesService_FirstFileWins(t *testing.T) {
	catalog := &mockCatalog{files: map[model.Classification]map[int64][]model.FileItem{
		model.ClassificationRaces: {1: {{ID: 5, Name: "first"}, {ID: 6, Name: "second"}}},
	}}
	svc := NewFilesService(catalog, testLogger())
	ctx := context.Background()

	file, ok, err := svc.GetRaceFile(ctx, 1)
	if err != nil || !ok || file != "first" {
		t.Errorf("GetRaceFile(1) = %q, %v, %v; ожидался первый файл", file, ok, err)
	}
	if _, ok, err := svc.GetNationFile(ctx, 1); err != nil || ok {
		t.Errorf("GetNationFile(1): ok = %v, err = %v; ожидалось отсутствие файла", ok, err)
	}
}

func TestFilesService_Errors(t *testing.T) {
	initErr := errors.New("нет токена")
	svc := NewFilesService(&mockCatalog{initErr: initErr}, testLogger())
	if _, _, err := svc.GetRaceFile(context.Background(), 1); !errors.Is(err, initErr) {
		t.Errorf("ожидалась ошибка инициализации, получено %v", err)
	}

	callErr := errors.New("файловый сервис недоступен")
	svc = NewFilesService(&mockCatalog{err: callErr}, testLogger())
	if _, _, err := svc.GetNationFile(context.Background(), 1); !errors.Is(err, callErr) {
		t.Errorf("ожидалась ошибка каталога, получено %v", err)
	}
}

// FilesService + агрегатор: сценарий целиком поверх каталога.
func TestFilesService_WithAggregator(t *testing.T) {
	catalog := &mockCatalog{files: map[model.Classification]map[int64][]model.FileItem{
		model.ClassificationRaces:   {1: {{ID: 1, Name: "r1"}}},
		model.ClassificationNations: {10: {{ID: 2, Name: "n10"}}, 21: {{ID: 3, Name: "n21"}}},
	}}
	agg := NewRaceNationAggregator(NewFilesService(catalog, testLogger()), 4, 4, testLogger())

	views, err := agg.Run(context.Background(), []*model.Race{race(1, 10, 11), race(2, 21)})
	if err != nil {
		t.Fatalf("Run() вернул ошибку: %v", err)
	}
	if len(views) != 1 || views[0].ID != 1 {
		t.Fatalf("ожидалась только раса 1, получено %+v", views)
	}
	if ids := nationIDs(&views[0]); len(ids) != 1 || ids[0] != 10 {
		t.Errorf("нации = %v, ожидалось [10]", ids)
	}
}

// --- RacesService ---

type mockAggregator struct {
	runFn func(ctx context.Context, races []*model.Race) ([]model.RaceView, error)
}

func (m *mockAggregator) Run(ctx context.Context, races []*model.Race) ([]model.RaceView, error) {
	return m.runFn(ctx, races)
}

func TestRacesService_ListWithNations(t *testing.T) {
	loaded := []*model.Race{race(1, 10)}
	repo := &mockRaceRepo{listWithNationsFn: func(context.Context) ([]*model.Race, error) {
		return loaded, nil
	}}
	agg := &mockAggregator{runFn: func(_ context.Context, races []*model.Race) ([]model.RaceView, error) {
		if len(races) != 1 || races[0] != loaded[0] {
			t.Errorf("агрегатор получил %v, ожидались расы из репозитория", races)
		}
		return []model.RaceView{{ID: 1}}, nil
	}}
	svc := NewRacesService(repo, agg, testLogger())

	views, err := svc.ListWithNations(context.Background())
	if err != nil {
		t.Fatalf("ListWithNations() вернул ошибку: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("получено %d рас, ожидалась 1", len(views))
	}
}

func TestRacesService_RepoError(t *testing.T) {
	dbErr := errors.New("база недоступна")
	repo := &mockRaceRepo{
		listFn:            func(context.Context) ([]*model.Race, error) { return nil, dbErr },
		listWithNationsFn: func(context.Context) ([]*model.Race, error) { return nil, dbErr },
	}
	agg := &mockAggregator{runFn: func(context.Context, []*model.Race) ([]model.RaceView, error) {
		t.Error("агрегатор не должен вызываться при ошибке репозитория")
		return nil, nil
	}}
	svc := NewRacesService(repo, agg, testLogger())

	if _, err := svc.List(context.Background()); !errors.Is(err, dbErr) {
		t.Errorf("List(): ожидалась ошибка репозитория, получено %v", err)
	}
	if _, err := svc.ListWithNations(context.Background()); !errors.Is(err, dbErr) {
		t.Errorf("ListWithNations(): ожидалась ошибка репозитория, получено %v", err)
	}
}

// --- NationsService ---

func TestNationsService_List(t *testing.T) {
	deletedAt := time.Now()
	races := &mockRaceRepo{getByIDFn: func(_ context.Context, id int64) (*model.Race, error) {
		switch id {
		case 1:
			return &model.Race{ID: 1}, nil
		case 2:
			return &model.Race{ID: 2, DeletedAt: &deletedAt}, nil
		default:
			return nil, repository.ErrNotFound
		}
	}}
	nations := &mockNationRepo{listByRaceFn: func(_ context.Context, raceID int64) ([]*model.Nation, error) {
		return []*model.Nation{{ID: 10, RaceID: raceID}}, nil
	}}
	svc := NewNationsService(races, nations, testLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		raceID  *int64
		kind    error
		message string
	}{
		{"раса не передана", nil, ErrValidation, MsgEmptyRace},
		{"раса не найдена", int64Ptr(42), ErrNotFound, MsgNotFoundRace},
		{"раса удалена", int64Ptr(2), ErrState, MsgDeletedRace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(ctx, tt.raceID)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("ожидалась %v, получено %v", tt.kind, err)
			}
			if err.Error() != tt.message {
				t.Errorf("сообщение = %q, ожидалось %q", err.Error(), tt.message)
			}
		})
	}

	got, err := svc.List(ctx, int64Ptr(1))
	if err != nil {
		t.Fatalf("List(1) вернул ошибку: %v", err)
	}
	if len(got) != 1 || got[0].RaceID != 1 {
		t.Errorf("List(1) = %+v", got)
	}
}
