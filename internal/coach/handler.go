package coach

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*Coach, error)
	Get(ctx context.Context, caller *auth.Caller, id int64) (*Coach, error)
}

type CoachesResponse struct {
	Coaches []*Coach `json:"coaches"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
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

func (h *Handler) ListCoaches(w http.ResponseWriter, r *http.Request) {
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

	coaches, err := h.Service.List(r.Context(), caller, limit, offset)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CoachesResponse{Coaches: coaches, Limit: limit, Offset: offset})
}

func (h *Handler) GetCoach(w http.ResponseWriter, r *http.Request) {
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
