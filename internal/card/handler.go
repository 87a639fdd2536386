package card

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller *auth.Caller, dto CreateCardDTO) (*Card, error)
	Get(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	ListByMember(ctx context.Context, caller *auth.Caller, memberID int64) ([]*Card, error)
	CheckEligibility(ctx context.Context, caller *auth.Caller, id int64) (*Eligibility, error)
	Activate(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	ConsumeSession(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	Freeze(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	Unfreeze(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	Refund(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)
	ExpireDue(ctx context.Context, batch int) (int, error)
}

type ExpirySweepResponse struct {
	Expired int `json:"expired"`
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

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	var dto CreateCardDTO
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

// ExpireDue runs one expiry sweep on demand. The batch query parameter caps
// how many cards are examined.
func (h *Handler) ExpireDue(w http.ResponseWriter, r *http.Request) {
	batch := h.QueryInt(r, "batch", 0)

	expired, err := h.Service.ExpireDue(r.Context(), batch)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExpirySweepResponse{Expired: expired})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.Get)
}

func (h *Handler) ListMemberCards(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, internal.ErrUnauthenticated)
		return
	}

	memberID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	cards, err := h.Service.ListByMember(r.Context(), caller, memberID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CardsResponse{Cards: cards})
}

func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
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

	e, err := h.Service.CheckEligibility(r.Context(), caller, id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.Activate)
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.ConsumeSession)
}

func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.Freeze)
}

func (h *Handler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.Unfreeze)
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.Service.Refund)
}

type cardOp func(ctx context.Context, caller *auth.Caller, id int64) (*Card, error)

func (h *Handler) withCard(w http.ResponseWriter, r *http.Request, status int, op cardOp) {
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

	c, err := op(r.Context(), caller, id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteJSON(w, status, c)
}
