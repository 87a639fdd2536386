package checkin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller *auth.Caller, dto CreateCheckInDTO) (*CheckIn, error)
	Get(ctx context.Context, caller *auth.Caller, id int64) (*CheckIn, error)
	List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*CheckIn, error)
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

func (h *Handler) CreateCheckIn(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	var dto CreateCheckInDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, r, err)
		return
	}

	c, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	limit := h.QueryInt(r, "limit", 20)
	if limit == 0 || limit > 100 {
		limit = 20
	}
	offset := h.QueryInt(r, "offset", 0)

	checkIns, err := h.Service.List(r.Context(), caller, limit, offset)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CheckInsResponse{CheckIns: checkIns, Limit: limit, Offset: offset})
}

func (h *Handler) GetCheckIn(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}
