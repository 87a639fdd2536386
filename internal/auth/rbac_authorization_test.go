package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/frahmantamala/gym-management/pkg/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type markerKey struct{}

var _ = Describe("RBACAuthorization", func() {
	var (
		rbac    *RBACAuthorization
		reg     *prometheus.Registry
		reached bool
		next    http.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reg = prometheus.NewRegistry()
		rbac = NewRBACAuthorization(NewPermissionResolver(nil), metrics.NewAuthorizationMetrics(reg), slogger)
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(mw func(http.Handler) http.Handler, caller *Caller) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		if caller != nil {
			req = req.WithContext(WithCaller(req.Context(), caller))
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) transport.ErrorEnvelope {
		var env transport.ErrorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env
	}

	It("rejects requests without a caller", func() {
		w := serve(rbac.Require(ResourceBooking, ActionRead), nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(decode(w).Code).To(Equal(internal.ErrCodeUnauthenticated))
		Expect(reached).To(BeFalse())
	})

	It("passes permitted callers through", func() {
		w := serve(rbac.Require(ResourceBooking, ActionCreate), &Caller{UserID: 1, Roles: []Role{RoleStaff}})

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(reached).To(BeTrue())
		count, err := testutil.GatherAndCount(reg, "authz_decisions_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("writes a 403 envelope for denied actions", func() {
		w := serve(rbac.Require(ResourceBooking, ActionDelete), &Caller{UserID: 1, Roles: []Role{RoleStaff}})

		Expect(w.Code).To(Equal(http.StatusForbidden))
		env := decode(w)
		Expect(env.Code).To(Equal(internal.ErrCodeInsufficientPermission))
		Expect(env.Path).To(Equal("/api/v1/bookings"))
		Expect(env.Timestamp).NotTo(BeEmpty())
		Expect(reached).To(BeFalse())
	})

	It("writes InvalidRole for unknown roles", func() {
		w := serve(rbac.Require(ResourceBooking, ActionRead), &Caller{UserID: 1, Roles: []Role{"ghost"}})

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(decode(w).Code).To(Equal(internal.ErrCodeInvalidRole))
	})

	It("runs extra guards after the permission check", func() {
		var order []string
		extra := GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
			order = append(order, "extra")
			return context.WithValue(ctx, markerKey{}, "seen"), nil
		})
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
			Expect(r.Context().Value(markerKey{})).To(Equal("seen"))
		})

		serve(rbac.Require(ResourceBooking, ActionRead, extra), &Caller{UserID: 1, Roles: []Role{RoleCoach}})
		Expect(order).To(Equal([]string{"extra", "handler"}))
	})

	It("skips extra guards when the permission check denies", func() {
		called := false
		extra := GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
			called = true
			return ctx, nil
		})

		w := serve(rbac.Require(ResourceBooking, ActionDelete, extra), &Caller{UserID: 1, Roles: []Role{RoleCoach}})
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(called).To(BeFalse())
	})

	It("stops the chain at the first failing guard", func() {
		deny := GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
			return ctx, internal.ErrForbidden.WithMessage("not a coach")
		})
		after := false
		tail := GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
			after = true
			return ctx, nil
		})

		_, err := Chain(deny, tail).Check(context.Background(), &Caller{})
		Expect(err).To(MatchError(internal.ErrForbidden))
		Expect(after).To(BeFalse())
	})
})
