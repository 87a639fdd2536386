package card_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockCardService struct {
	card        *card.Card
	err         error
	created     card.CreateCardDTO
	lastID      int64
	eligibility *card.Eligibility
	sweepBatch  int
}

func (m *mockCardService) Create(_ context.Context, _ *auth.Caller, dto card.CreateCardDTO) (*card.Card, error) {
	m.created = dto
	return m.card, m.err
}

func (m *mockCardService) op(id int64) (*card.Card, error) {
	m.lastID = id
	return m.card, m.err
}

func (m *mockCardService) Get(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) ListByMember(_ context.Context, _ *auth.Caller, memberID int64) ([]*card.Card, error) {
	m.lastID = memberID
	if m.err != nil {
		return nil, m.err
	}
	return []*card.Card{m.card}, nil
}

func (m *mockCardService) CheckEligibility(_ context.Context, _ *auth.Caller, id int64) (*card.Eligibility, error) {
	m.lastID = id
	return m.eligibility, m.err
}

func (m *mockCardService) Activate(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) ConsumeSession(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) Freeze(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) Unfreeze(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) Refund(_ context.Context, _ *auth.Caller, id int64) (*card.Card, error) {
	return m.op(id)
}

func (m *mockCardService) ExpireDue(_ context.Context, batch int) (int, error) {
	m.sweepBatch = batch
	return 3, m.err
}

var _ = Describe("Card Handler", func() {
	var (
		svc    *mockCardService
		router chi.Router
		caller *auth.Caller
	)

	do := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		if caller != nil {
			req = req.WithContext(auth.WithCaller(req.Context(), caller))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeEnvelope := func(w *httptest.ResponseRecorder) transport.ErrorEnvelope {
		var env transport.ErrorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env
	}

	BeforeEach(func() {
		c := activeTimesCard(10)
		svc = &mockCardService{card: &c}
		storeID := int64(10)
		caller = &auth.Caller{UserID: 1, BrandID: 1, StoreID: &storeID, Roles: []auth.Role{auth.RoleStaff}}

		h := card.NewHandler(svc, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		router = chi.NewRouter()
		router.Post("/cards", h.CreateCard)
		router.Get("/cards/{id}", h.GetCard)
		router.Get("/members/{id}/cards", h.ListMemberCards)
		router.Get("/cards/{id}/eligibility", h.CheckEligibility)
		router.Post("/cards/{id}/consume", h.Consume)
		router.Post("/cards/{id}/freeze", h.Freeze)
		router.Post("/cards/{id}/refund", h.Refund)
		router.Post("/admin/cards/expire", h.ExpireDue)
	})

	It("reports how many cards an on-demand sweep expired", func() {
		w := do(http.MethodPost, "/admin/cards/expire?batch=50", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.sweepBatch).To(Equal(50))

		var resp card.ExpirySweepResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Expired).To(Equal(3))
	})

	It("creates a card with 201", func() {
		w := do(http.MethodPost, "/cards", []byte(`{"member_id":5,"billing_type":"times","total_sessions":10,"price":"99.90"}`))
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(svc.created.MemberID).To(Equal(int64(5)))
		Expect(svc.created.Price.String()).To(Equal("99.9"))
	})

	It("rejects a create request with an unknown billing type", func() {
		w := do(http.MethodPost, "/cards", []byte(`{"member_id":5,"billing_type":"weekly"}`))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		env := decodeEnvelope(w)
		Expect(env.Code).To(Equal(internal.ErrCodeValidationFailed))
		Expect(env.Errors).NotTo(BeEmpty())
	})

	It("renders an exhausted card as 422", func() {
		svc.err = internal.ErrCardExhausted
		w := do(http.MethodPost, "/cards/3/consume", nil)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(svc.lastID).To(Equal(int64(3)))

		env := decodeEnvelope(w)
		Expect(env.Code).To(Equal(internal.ErrCodeCardExhausted))
		Expect(env.Path).To(Equal("/cards/3/consume"))
	})

	It("renders a lost update as 409", func() {
		svc.err = internal.ErrConcurrencyConflict
		w := do(http.MethodPost, "/cards/3/freeze", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("renders an invalid transition with its message", func() {
		svc.err = internal.ErrInvalidCardTransition.WithMessage("cannot refund a refunded card")
		w := do(http.MethodPost, "/cards/3/refund", nil)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(decodeEnvelope(w).Message).To(Equal("cannot refund a refunded card"))
	})

	It("returns eligibility as a body, not an error", func() {
		svc.eligibility = card.NewEligibility(svc.card, internal.ErrCardExpired)
		w := do(http.MethodGet, "/cards/3/eligibility", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var e card.Eligibility
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())
		Expect(e.Eligible).To(BeFalse())
		Expect(e.Reason).To(Equal(internal.ErrCodeCardExpired))
	})

	It("lists the cards of a member", func() {
		w := do(http.MethodGet, "/members/5/cards", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.lastID).To(Equal(int64(5)))

		var resp card.CardsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Cards).To(HaveLen(1))
	})

	It("rejects a malformed id", func() {
		w := do(http.MethodGet, "/cards/abc", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeEnvelope(w).Code).To(Equal(internal.ErrCodeValidationFailed))
	})

	It("requires a caller", func() {
		caller = nil
		w := do(http.MethodGet, "/cards/3", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("maps not found and forbidden distinctly", func() {
		svc.err = internal.ErrCardNotFound
		Expect(do(http.MethodGet, "/cards/3", nil).Code).To(Equal(http.StatusNotFound))

		svc.err = internal.ErrForbidden
		Expect(do(http.MethodGet, "/cards/3", nil).Code).To(Equal(http.StatusForbidden))
	})
})
