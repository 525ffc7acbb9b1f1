package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/hotel-reservations/internal/application"
	"github.com/example/hotel-reservations/internal/observability/metrics"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	Update(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	Cancel(ctx context.Context, principal application.Principal, id string) error
	Get(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	ListForUser(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
}

// ReservationHandler serves the reservation pages of signed-in users.
type ReservationHandler struct {
	service  reservationService
	rooms    roomCatalog
	renderer *renderer
	logger   *slog.Logger
}

func newReservationHandler(service reservationService, rooms roomCatalog, rd *renderer, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, rooms: rooms, renderer: rd, logger: defaultLogger(logger)}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

type reservationForm struct {
	Action    string
	Submit    string
	Editing   bool
	Rooms     []application.Room
	Values    application.ReservationInput
	Conflicts []application.DateRange
}

// New renders an empty reservation form. A room_id query parameter preselects the room.
func (h *ReservationHandler) New(w http.ResponseWriter, r *http.Request) {
	form := reservationForm{
		Action: "/reserve",
		Submit: "Book room",
		Values: application.ReservationInput{RoomID: strings.TrimSpace(r.URL.Query().Get("room_id"))},
	}
	h.renderForm(w, r, http.StatusOK, "Book a room", form, nil, "")
}

// Create stores a reservation for the signed-in user.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	input := reservationInputFromForm(r)
	logger := h.log(r.Context(), "Create", "room_id", input.RoomID)

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		form := reservationForm{Action: "/reserve", Submit: "Book room", Values: input}
		h.handleFormError(w, r, logger, "create", "Book a room", form, err)
		return
	}

	metrics.ObserveReservation("create", "accepted")
	logger.InfoContext(r.Context(), "reservation created", "reservation_id", reservation.ID)
	h.renderer.redirectWithFlash(w, r, "/reservations",
		fmt.Sprintf("Reservation confirmed: room %s from %s to %s.", reservation.RoomID, formatDate(reservation.StartDate), formatDate(reservation.EndDate)))
}

// List renders the signed-in user's reservations.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListForUser(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}
	h.renderer.render(w, r, http.StatusOK, "reservations", pageData{Title: "My reservations", Data: reservations})
}

// Edit renders the edit form prefilled from the stored reservation.
func (h *ReservationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	reservation, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.renderer.handleServiceError(w, r, err)
		return
	}

	form := reservationForm{
		Action:  "/edit_reservation/" + reservation.ID,
		Submit:  "Save changes",
		Editing: true,
		Values: application.ReservationInput{
			Name:      reservation.Name,
			RoomID:    reservation.RoomID,
			Guests:    strconv.Itoa(reservation.Guests),
			StartDate: formatDate(reservation.StartDate),
			EndDate:   formatDate(reservation.EndDate),
		},
	}
	h.renderForm(w, r, http.StatusOK, "Edit reservation", form, nil, "")
}

// Update applies the submitted changes to a reservation.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	input := reservationInputFromForm(r)
	logger := h.log(r.Context(), "Update", "reservation_id", id, "room_id", input.RoomID)

	reservation, err := h.service.Update(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: id,
		Input:         input,
	})
	if err != nil {
		form := reservationForm{Action: "/edit_reservation/" + id, Submit: "Save changes", Editing: true, Values: input}
		h.handleFormError(w, r, logger, "update", "Edit reservation", form, err)
		return
	}

	metrics.ObserveReservation("update", "accepted")
	logger.InfoContext(r.Context(), "reservation updated")
	h.renderer.redirectWithFlash(w, r, listingFor(principal),
		fmt.Sprintf("Reservation updated: room %s from %s to %s.", reservation.RoomID, formatDate(reservation.StartDate), formatDate(reservation.EndDate)))
}

// Cancel deletes a reservation and returns to the listing with a notice.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	logger := h.log(r.Context(), "Cancel", "reservation_id", id)

	err := h.service.Cancel(r.Context(), principal, id)
	switch {
	case err == nil:
		metrics.ObserveReservation("cancel", "accepted")
		logger.InfoContext(r.Context(), "reservation cancelled")
		h.renderer.redirectWithFlash(w, r, listingFor(principal), "Reservation cancelled.")
	case errors.Is(err, application.ErrNotFound):
		metrics.ObserveReservation("cancel", "not_found")
		h.renderer.redirectWithFlash(w, r, listingFor(principal), "Reservation not found.")
	default:
		metrics.ObserveReservation("cancel", outcomeLabel(err))
		h.renderer.handleServiceError(w, r, err)
	}
}

func (h *ReservationHandler) handleFormError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, operation, title string, form reservationForm, err error) {
	metrics.ObserveReservation(operation, outcomeLabel(err))

	if fieldErrors, ok := validationErrors(err); ok {
		logger.InfoContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.renderForm(w, r, http.StatusUnprocessableEntity, title, form, fieldErrors, statusMessage(http.StatusUnprocessableEntity))
		return
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		logger.InfoContext(r.Context(), "reservation conflicts with an existing booking", "error_kind", application.ErrorKind(err))
		form.Conflicts = conflict.Conflicts
		h.renderForm(w, r, http.StatusConflict, title, form, nil,
			fmt.Sprintf("Room %s is not available for the requested dates.", conflict.RoomID))
		return
	}

	h.renderer.handleServiceError(w, r, err)
}

func (h *ReservationHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, form reservationForm, fieldErrors map[string]string, notice string) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "renderForm").ErrorContext(r.Context(), "failed to list rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}
	form.Rooms = rooms
	h.renderer.render(w, r, status, "reserve", pageData{
		Title:  title,
		Notice: notice,
		Errors: fieldErrors,
		Data:   form,
	})
}

func reservationInputFromForm(r *http.Request) application.ReservationInput {
	return application.ReservationInput{
		Name:      r.PostFormValue("name"),
		RoomID:    r.PostFormValue("room_id"),
		Guests:    r.PostFormValue("guests"),
		StartDate: r.PostFormValue("start_date"),
		EndDate:   r.PostFormValue("end_date"),
	}
}

func listingFor(principal application.Principal) string {
	if principal.IsAdmin {
		return "/admin"
	}
	return "/reservations"
}

func outcomeLabel(err error) string {
	switch application.ErrorKind(err) {
	case "validation":
		return "invalid"
	case "conflict":
		return "conflict"
	case "unauthorized":
		return "forbidden"
	case "not_found":
		return "not_found"
	default:
		return "error"
	}
}
