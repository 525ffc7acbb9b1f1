package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hotel-reservations/internal/application"
)

type roomCatalog interface {
	ListRooms(ctx context.Context) ([]application.Room, error)
}

// PageHandler serves the public pages.
type PageHandler struct {
	rooms    roomCatalog
	renderer *renderer
	logger   *slog.Logger
}

func newPageHandler(rooms roomCatalog, rd *renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{rooms: rooms, renderer: rd, logger: defaultLogger(logger)}
}

func (h *PageHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PageHandler", operation, attrs...)
}

// Home renders the landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "home", pageData{Title: "Welcome"})
}

// Rooms renders the room catalog.
func (h *PageHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "Rooms").ErrorContext(r.Context(), "failed to list rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}
	h.renderer.render(w, r, http.StatusOK, "rooms", pageData{Title: "Our rooms", Data: rooms})
}

// NotFound renders the 404 page for unmatched routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderError(w, r, http.StatusNotFound, "")
}
