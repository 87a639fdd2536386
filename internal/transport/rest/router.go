package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/booking"
	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/frahmantamala/gym-management/internal/checkin"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/internal/transport/middleware"
	"github.com/frahmantamala/gym-management/internal/transport/swagger"
	"github.com/frahmantamala/gym-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Member  *member.Handler
	Coach   *coach.Handler
	Card    *card.Handler
	Booking *booking.Handler
	CheckIn *checkin.Handler
}

type Options struct {
	SpecPath       string
	AllowedOrigins string
	MetricsPath    string
	MetricsHandler http.Handler
	LoginRateLimit int
	HealthChecks   map[string]Pinger
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, rbac *auth.RBACAuthorization, gate *coach.Gate, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, opts.HealthChecks)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.SpecPath != "" {
		router.Get(swagger.SpecURL, func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.SpecPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, opts.MetricsHandler)
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(ar chi.Router) {
			if opts.LoginRateLimit > 0 {
				ar.Use(middleware.RateLimitByIP(logger, opts.LoginRateLimit, time.Minute))
			}
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.CallerContext)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Route("/members", func(mr chi.Router) {
				mr.With(rbac.Require(auth.ResourceMember, auth.ActionRead)).Get("/", h.Member.ListMembers)
				mr.With(rbac.Require(auth.ResourceMember, auth.ActionRead)).Get("/{id}", h.Member.GetMember)
				mr.With(rbac.Require(auth.ResourceMembershipCard, auth.ActionRead)).Get("/{id}/cards", h.Card.ListMemberCards)
			})

			pr.Route("/coaches", func(cr chi.Router) {
				cr.Use(rbac.Require(auth.ResourceCoach, auth.ActionRead))
				cr.Get("/", h.Coach.ListCoaches)
				cr.Get("/{id}", h.Coach.GetCoach)
			})

			pr.Route("/coach", func(cr chi.Router) {
				cr.With(rbac.Require(auth.ResourceBooking, auth.ActionRead,
					gate.RequireSpecialization(coach.SpecializationPersonal))).
					Get("/personal-bookings", h.Booking.ListPersonalBookings)
				cr.With(rbac.Require(auth.ResourceBooking, auth.ActionRead,
					gate.RequireSpecialization(coach.SpecializationGroup))).
					Get("/group-bookings", h.Booking.ListGroupBookings)
			})

			pr.Route("/cards", func(cr chi.Router) {
				cr.With(rbac.Require(auth.ResourceMembershipCard, auth.ActionCreate)).Post("/", h.Card.CreateCard)

				cr.Group(func(rr chi.Router) {
					rr.Use(rbac.Require(auth.ResourceMembershipCard, auth.ActionRead))
					rr.Get("/{id}", h.Card.GetCard)
					rr.Get("/{id}/eligibility", h.Card.CheckEligibility)
				})

				cr.Group(func(ur chi.Router) {
					ur.Use(rbac.Require(auth.ResourceMembershipCard, auth.ActionUpdate))
					ur.Post("/{id}/activate", h.Card.Activate)
					ur.Post("/{id}/consume", h.Card.Consume)
					ur.Post("/{id}/freeze", h.Card.Freeze)
					ur.Post("/{id}/unfreeze", h.Card.Unfreeze)
					ur.Post("/{id}/refund", h.Card.Refund)
				})
			})

			pr.Route("/bookings", func(br chi.Router) {
				br.With(rbac.Require(auth.ResourceBooking, auth.ActionCreate)).Post("/", h.Booking.CreateBooking)
				br.With(rbac.Require(auth.ResourceBooking, auth.ActionRead)).Get("/", h.Booking.ListBookings)
				br.With(rbac.Require(auth.ResourceBooking, auth.ActionRead)).Get("/{id}", h.Booking.GetBooking)
			})

			pr.Route("/check-ins", func(cr chi.Router) {
				cr.With(rbac.Require(auth.ResourceCheckIn, auth.ActionCreate)).Post("/", h.CheckIn.CreateCheckIn)
				cr.With(rbac.Require(auth.ResourceCheckIn, auth.ActionRead)).Get("/", h.CheckIn.ListCheckIns)
				cr.With(rbac.Require(auth.ResourceCheckIn, auth.ActionRead)).Get("/{id}", h.CheckIn.GetCheckIn)
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(middleware.RequireRoles(logger, auth.RoleAdmin, auth.RoleBrandManager))
				ar.Post("/cards/expire", h.Card.ExpireDue)
			})
		})
	})
}
