package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/booking"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockBookingService struct {
	err         error
	created     *booking.CreateBookingDTO
	coachID     int64
	sessionType booking.SessionType
}

func (m *mockBookingService) Create(_ context.Context, _ *auth.Caller, dto booking.CreateBookingDTO) (*booking.Booking, error) {
	m.created = &dto
	if m.err != nil {
		return nil, m.err
	}
	return &booking.Booking{ID: 1, MemberID: dto.MemberID, Status: booking.StatusConfirmed}, nil
}

func (m *mockBookingService) Get(_ context.Context, _ *auth.Caller, id int64) (*booking.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &booking.Booking{ID: id}, nil
}

func (m *mockBookingService) List(context.Context, *auth.Caller, int, int) ([]*booking.Booking, error) {
	return []*booking.Booking{}, m.err
}

func (m *mockBookingService) ListForCoach(_ context.Context, c *coach.Coach, sessionType booking.SessionType, _, _ int) ([]*booking.Booking, error) {
	m.coachID = c.ID
	m.sessionType = sessionType
	return []*booking.Booking{{ID: 9, SessionType: sessionType}}, m.err
}

var _ = Describe("Booking Handler", func() {
	var (
		svc    *mockBookingService
		router chi.Router
	)

	do := func(method, path string, body []byte, ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body)).WithContext(ctx)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	staffCtx := func() context.Context {
		storeID := int64(10)
		return auth.WithCaller(context.Background(), &auth.Caller{UserID: 1, BrandID: 1, StoreID: &storeID, Roles: []auth.Role{auth.RoleStaff}})
	}

	BeforeEach(func() {
		svc = &mockBookingService{}
		h := booking.NewHandler(svc, nil)
		router = chi.NewRouter()
		router.Post("/bookings", h.CreateBooking)
		router.Get("/bookings", h.ListBookings)
		router.Get("/bookings/{id}", h.GetBooking)
		router.Get("/coach/personal-bookings", h.ListPersonalBookings)
		router.Get("/coach/group-bookings", h.ListGroupBookings)
	})

	It("requires a card id for card-paid bookings", func() {
		body := []byte(`{"member_id":3,"session_type":"group","payment_method":"membership_card","scheduled_at":"2026-03-02T09:00:00Z"}`)
		w := do(http.MethodPost, "/bookings", body, staffCtx())
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.created).To(BeNil())

		var env transport.ErrorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Errors).To(HaveLen(1))
		Expect(env.Errors[0].Field).To(Equal("membership_card_id"))
	})

	It("creates a cash booking", func() {
		body := []byte(`{"member_id":3,"session_type":"personal","payment_method":"cash","scheduled_at":"2026-03-02T09:00:00Z"}`)
		w := do(http.MethodPost, "/bookings", body, staffCtx())
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(svc.created.MemberID).To(Equal(int64(3)))
	})

	It("surfaces card errors from booking creation", func() {
		svc.err = internal.ErrCardNotActive.WithMessage("card is frozen")
		body := []byte(`{"member_id":3,"session_type":"group","payment_method":"membership_card","membership_card_id":4,"scheduled_at":"2026-03-02T09:00:00Z"}`)
		w := do(http.MethodPost, "/bookings", body, staffCtx())
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

		var env transport.ErrorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Code).To(Equal(internal.ErrCodeCardNotActive))
		Expect(env.Message).To(Equal("card is frozen"))
	})

	It("lists the attached coach's personal sessions", func() {
		ctx := coach.WithCoach(staffCtx(), &coach.Coach{ID: 5})
		w := do(http.MethodGet, "/coach/personal-bookings", nil, ctx)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.coachID).To(Equal(int64(5)))
		Expect(svc.sessionType).To(Equal(booking.SessionPersonal))

		var resp booking.BookingsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Bookings).To(HaveLen(1))
	})

	It("lists group sessions for the group route", func() {
		ctx := coach.WithCoach(staffCtx(), &coach.Coach{ID: 6})
		w := do(http.MethodGet, "/coach/group-bookings", nil, ctx)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.sessionType).To(Equal(booking.SessionGroup))
	})

	It("refuses the coach routes without an attached coach", func() {
		w := do(http.MethodGet, "/coach/personal-bookings", nil, staffCtx())
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("requires a caller for bookings", func() {
		w := do(http.MethodGet, "/bookings", nil, context.Background())
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
