package booking

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller *auth.Caller, dto CreateBookingDTO) (*Booking, error)
	Get(ctx context.Context, caller *auth.Caller, id int64) (*Booking, error)
	List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*Booking, error)
	ListForCoach(ctx context.Context, c *coach.Coach, sessionType SessionType, limit, offset int) ([]*Booking, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) page(r *http.Request) (int, int) {
	limit := h.QueryInt(r, "limit", 20)
	if limit == 0 || limit > 100 {
		limit = 20
	}
	return limit, h.QueryInt(r, "offset", 0)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	var dto CreateBookingDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, r, err)
		return
	}

	b, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	limit, offset := h.page(r)
	bookings, err := h.Service.List(r.Context(), caller, limit, offset)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BookingsResponse{Bookings: bookings, Limit: limit, Offset: offset})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	b, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

// ListPersonalBookings serves the coach's personal training sessions. The
// route's specialization guard has already attached the coach.
func (h *Handler) ListPersonalBookings(w http.ResponseWriter, r *http.Request) {
	h.listForCoach(w, r, SessionPersonal)
}

func (h *Handler) ListGroupBookings(w http.ResponseWriter, r *http.Request) {
	h.listForCoach(w, r, SessionGroup)
}

func (h *Handler) listForCoach(w http.ResponseWriter, r *http.Request, sessionType SessionType) {
	c, ok := coach.FromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrForbidden.WithMessage("coach profile missing"))
		return
	}

	limit, offset := h.page(r)
	bookings, err := h.Service.ListForCoach(r.Context(), c, sessionType, limit, offset)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BookingsResponse{Bookings: bookings, Limit: limit, Offset: offset})
}
