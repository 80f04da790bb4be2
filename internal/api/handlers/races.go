// races.go — GET /races/list и GET /races/list_with_nations.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// RacesHandler — обработчики списков рас.
type RacesHandler struct {
	races  RacesLister
	logger *slog.Logger
}

// NewRacesHandler создаёт RacesHandler.
func NewRacesHandler(races RacesLister, logger *slog.Logger) *RacesHandler {
	return &RacesHandler{
		races:  races,
		logger: logger.With(slog.String("component", "races_handler")),
	}
}

// List — GET /races/list.
func (h *RacesHandler) List(w http.ResponseWriter, r *http.Request) {
	races, err := h.races.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	items := make([]baseItem, 0, len(races))
	for _, race := range races {
		items = append(items, baseItem{ID: race.ID, Name: race.Name, Description: race.Description})
	}
	writeList(w, items)
}

// ListWithNations — GET /races/list_with_nations.
// Порядок рас в ответе не гарантируется.
func (h *RacesHandler) ListWithNations(w http.ResponseWriter, r *http.Request) {
	views, err := h.races.ListWithNations(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	items := make([]raceItem, 0, len(views))
	for i := range views {
		items = append(items, toRaceItem(&views[i]))
	}
	writeList(w, items)
}

func toRaceItem(v *model.RaceView) raceItem {
	nations := make([]nationItem, 0, len(v.Nations))
	for _, n := range v.Nations {
		nations = append(nations, nationItem{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			File:        n.File,
		})
	}
	return raceItem{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		File:        v.File,
		Nations:     nations,
	}
}
