// nations.go — GET /nations/list?raceId={id}.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/insania/biology-module/internal/api/errors"
)

// NationsHandler — обработчик списка наций.
type NationsHandler struct {
	nations NationsLister
	logger  *slog.Logger
}

// NewNationsHandler создаёт NationsHandler.
func NewNationsHandler(nations NationsLister, logger *slog.Logger) *NationsHandler {
	return &NationsHandler{
		nations: nations,
		logger:  logger.With(slog.String("component", "nations_handler")),
	}
}

// List — GET /nations/list. Отсутствие raceId проверяет сервис.
func (h *NationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var raceID *int64
	if err := runtime.BindQueryParameter("form", true, false, "raceId", r.URL.Query(), &raceID); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр raceId")
		return
	}

	nations, err := h.nations.List(r.Context(), raceID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	items := make([]baseItem, 0, len(nations))
	for _, n := range nations {
		items = append(items, baseItem{ID: n.ID, Name: n.Name, Description: n.Description})
	}
	writeList(w, items)
}
