// Пакет handlers — HTTP-обработчики Biology Module.
// Ответы: {"success": true, "items": [...]}; ошибки — через api/errors
// со статусом 400 и информационным кодом.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/insania/biology-module/internal/api/errors"
	"github.com/bigkaa/insania/biology-module/internal/domain/model"
	"github.com/bigkaa/insania/biology-module/internal/fileclient"
	"github.com/bigkaa/insania/biology-module/internal/service"
)

// RacesLister — списки рас (реализуется service.RacesService).
type RacesLister interface {
	List(ctx context.Context) ([]*model.Race, error)
	ListWithNations(ctx context.Context) ([]model.RaceView, error)
}

// NationsLister — списки наций (реализуется service.NationsService).
type NationsLister interface {
	List(ctx context.Context, raceID *int64) ([]*model.Nation, error)
}

// baseItem — элемент простого списка.
type baseItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// nationItem — нация с представительным файлом.
type nationItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	File        string `json:"file"`
}

// raceItem — раса с файлом и нациями.
type raceItem struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	File        string       `json:"file"`
	Nations     []nationItem `json:"nations"`
}

// listResponse — успешный ответ со списком.
type listResponse[T any] struct {
	Success bool `json:"success"`
	Items   []T  `json:"items"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeList записывает {"success": true, "items": items}.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Success: true, Items: items})
}

// writeServiceError отображает ошибку сервисного слоя в ответ 400 с кодом.
// Сообщение — текст ошибки как есть.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := errorCode(err)
	if code == apierrors.CodeInternalError {
		logger.Error("Необработанная ошибка", slog.String("error", err.Error()))
	}
	apierrors.BadRequest(w, code, err.Error())
}

// errorCode подбирает информационный код по виду ошибки.
func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return apierrors.CodeValidationError
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, fileclient.ErrNotFoundFileType):
		return apierrors.CodeNotFound
	case errors.Is(err, service.ErrState):
		return apierrors.CodeStateError
	case errors.Is(err, fileclient.ErrTimeout):
		return apierrors.CodeTimeout
	case errors.Is(err, fileclient.ErrRemoteCall):
		return apierrors.CodeRemoteServiceError
	case errors.Is(err, service.ErrNotFoundParameter),
		errors.Is(err, fileclient.ErrEmptyParameter),
		errors.Is(err, fileclient.ErrEmptyToken),
		errors.Is(err, fileclient.ErrInvalidURL):
		return apierrors.CodeConfigurationError
	default:
		return apierrors.CodeInternalError
	}
}
