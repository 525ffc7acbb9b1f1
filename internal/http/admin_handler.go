package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/hotel-reservations/internal/application"
)

type reservationLedger interface {
	ListAll(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
}

type userDirectory interface {
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (application.UserDetail, error)
}

// AdminHandler serves the administrator dashboard.
type AdminHandler struct {
	reservations reservationLedger
	users        userDirectory
	renderer     *renderer
	logger       *slog.Logger
}

func newAdminHandler(reservations reservationLedger, users userDirectory, rd *renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{reservations: reservations, users: users, renderer: rd, logger: defaultLogger(logger)}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

type dashboard struct {
	Reservations []application.Reservation
	Users        []application.User
}

// Dashboard lists every reservation with its owner, followed by all users.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Dashboard")

	reservations, err := h.reservations.ListAll(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}
	users, err := h.users.ListUsers(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list users", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}

	h.renderer.render(w, r, http.StatusOK, "admin", pageData{
		Title: "Administration",
		Data:  dashboard{Reservations: reservations, Users: users},
	})
}

// User shows a single account and its reservations.
func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.users.GetUser(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.handleServiceError(w, r, err)
		return
	}
	h.renderer.render(w, r, http.StatusOK, "admin_user", pageData{
		Title: detail.User.FirstName + " " + detail.User.LastName,
		Data:  detail,
	})
}
