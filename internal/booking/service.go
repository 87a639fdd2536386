package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/internal/core/database"
	"github.com/frahmantamala/gym-management/internal/member"
	"gorm.io/gorm"
)

type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*Booking, error)
	ListByCoach(ctx context.Context, coachID int64, sessionType SessionType, limit, offset int) ([]*Booking, error)
}

type MemberReader interface {
	Get(ctx context.Context, caller *auth.Caller, id int64) (*member.Member, error)
}

type CoachReader interface {
	Get(ctx context.Context, caller *auth.Caller, id int64) (*coach.Coach, error)
}

// CardRedeemer charges a visit to a membership card inside a booking
// transaction and publishes the card's effects once it has committed.
type CardRedeemer interface {
	RedeemWithTx(ctx context.Context, tx *gorm.DB, cardID int64, owner member.Member) (*card.Card, []card.Effect, error)
	ExpireIfDue(ctx context.Context, id int64) (bool, error)
	Publish(ctx context.Context, c *card.Card, effects []card.Effect)
}

type Service struct {
	repo    RepositoryAPI
	tx      database.Transactor
	members MemberReader
	coaches CoachReader
	cards   CardRedeemer
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, tx database.Transactor, members MemberReader, coaches CoachReader, cards CardRedeemer, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		members: members,
		coaches: coaches,
		cards:   cards,
		logger:  logger,
	}
}

// Create books a session for a member. A card-paid booking and its card
// charge commit together or not at all.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, dto CreateBookingDTO) (*Booking, error) {
	m, err := s.members.Get(ctx, caller, dto.MemberID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, internal.NewValidationFieldError("member_id", "member is not active", internal.ErrCodeValidationFailed)
	}

	sessionType := SessionType(dto.SessionType)
	if dto.CoachID != nil {
		if err := s.checkCoach(ctx, caller, *dto.CoachID, m, sessionType); err != nil {
			return nil, err
		}
	}

	b := &Booking{
		BrandID:       m.BrandID,
		StoreID:       m.StoreID,
		MemberID:      m.ID,
		CoachID:       dto.CoachID,
		CourseID:      dto.CourseID,
		SessionType:   sessionType,
		PaymentMethod: PaymentMethod(dto.PaymentMethod),
		Status:        StatusConfirmed,
		ScheduledAt:   dto.ScheduledAt.UTC(),
		CreatedBy:     caller.UserID,
	}
	if b.PaymentMethod == PaymentMembershipCard {
		b.MembershipCardID = dto.MembershipCardID
	}

	var (
		charged *card.Card
		effects []card.Effect
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if b.IsCardPaid() {
			var err error
			charged, effects, err = s.cards.RedeemWithTx(ctx, tx, *b.MembershipCardID, *m)
			if err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).Create(ctx, b)
	})
	if err != nil {
		if b.IsCardPaid() && errors.Is(err, internal.ErrCardExpired) {
			if _, expErr := s.cards.ExpireIfDue(ctx, *b.MembershipCardID); expErr != nil {
				s.logger.WarnContext(ctx, "lazy card expiry failed", "card_id", *b.MembershipCardID, "error", expErr)
			}
		}
		s.logger.WarnContext(ctx, "booking rejected", "member_id", m.ID, "error", err)
		return nil, err
	}

	s.cards.Publish(ctx, charged, effects)

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", b.ID,
		"member_id", b.MemberID,
		"session_type", b.SessionType,
		"payment_method", b.PaymentMethod)
	return b, nil
}

func (s *Service) checkCoach(ctx context.Context, caller *auth.Caller, coachID int64, m *member.Member, sessionType SessionType) error {
	c, err := s.coaches.Get(ctx, caller, coachID)
	if err != nil {
		return err
	}
	if c.BrandID != m.BrandID || c.StoreID != m.StoreID {
		return internal.NewValidationFieldError("coach_id", "coach works at another store", internal.ErrCodeValidationFailed)
	}
	if !teaches(c, sessionType) {
		return internal.NewValidationFieldError("coach_id",
			fmt.Sprintf("coach does not teach %s sessions", sessionType), internal.ErrCodeValidationFailed)
	}
	return nil
}

func teaches(c *coach.Coach, sessionType SessionType) bool {
	if !c.IsActive() {
		return false
	}
	switch sessionType {
	case SessionPersonal:
		return c.IsPersonalTrainer()
	case SessionGroup:
		return c.IsGroupInstructor()
	}
	return false
}

func (s *Service) Get(ctx context.Context, caller *auth.Caller, id int64) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureInScope(caller, auth.ResourceBooking, b.TenantRef()); err != nil {
		s.logger.WarnContext(ctx, "booking outside caller scope", "booking_id", id, "user_id", caller.UserID)
		return nil, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*Booking, error) {
	scope := auth.ResolveScopeFilter(caller, auth.ResourceBooking)
	bookings, err := s.repo.List(ctx, scope, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list bookings", "error", err, "scope", scope.Kind)
		return nil, err
	}
	return bookings, nil
}

// ListForCoach returns the coach's own bookings of one session type.
func (s *Service) ListForCoach(ctx context.Context, c *coach.Coach, sessionType SessionType, limit, offset int) ([]*Booking, error) {
	bookings, err := s.repo.ListByCoach(ctx, c.ID, sessionType, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list coach bookings", "error", err, "coach_id", c.ID)
		return nil, err
	}
	return bookings, nil
}
