package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// FileCatalog — клиент каталога файлов (реализуется fileclient.Client).
type FileCatalog interface {
	Initialize(ctx context.Context) error
	GetFilesFor(ctx context.Context, entityID int64, classification model.Classification) ([]model.FileItem, error)
}

// FilesService — поиск представительного файла сущности.
// Представительный файл — первый из возвращённых каталогом.
type FilesService struct {
	catalog FileCatalog
	logger  *slog.Logger
}

// NewFilesService создаёт FilesService.
func NewFilesService(catalog FileCatalog, logger *slog.Logger) *FilesService {
	return &FilesService{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "files_service")),
	}
}

// Initialize подготавливает каталог (аутентификация, параметры, типы файлов).
func (s *FilesService) Initialize(ctx context.Context) error {
	return s.catalog.Initialize(ctx)
}

// GetRepresentativeFile возвращает ссылку на первый файл сущности.
// ok=false — у сущности нет файлов.
func (s *FilesService) GetRepresentativeFile(ctx context.Context, entityID int64, classification model.Classification) (string, bool, error) {
	if err := s.catalog.Initialize(ctx); err != nil {
		return "", false, err
	}
	files, err := s.catalog.GetFilesFor(ctx, entityID, classification)
	if err != nil {
		s.logger.Error("Ошибка получения файлов сущности",
			slog.String("classification", string(classification)),
			slog.Int64("entity_id", entityID),
			slog.String("error", err.Error()),
		)
		return "", false, err
	}
	if len(files) == 0 {
		return "", false, nil
	}
	return files[0].Name, true, nil
}

// GetRaceFile возвращает представительный файл расы.
func (s *FilesService) GetRaceFile(ctx context.Context, raceID int64) (string, bool, error) {
	return s.GetRepresentativeFile(ctx, raceID, model.ClassificationRaces)
}

// GetNationFile возвращает представительный файл нации.
func (s *FilesService) GetNationFile(ctx context.Context, nationID int64) (string, bool, error) {
	return s.GetRepresentativeFile(ctx, nationID, model.ClassificationNations)
}
