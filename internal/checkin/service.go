package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/booking"
	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/frahmantamala/gym-management/internal/core/database"
	"github.com/frahmantamala/gym-management/internal/member"
	"gorm.io/gorm"
)

type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(ctx context.Context, c *CheckIn) error
	GetByID(ctx context.Context, id int64) (*CheckIn, error)
	List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*CheckIn, error)
	ExistsForBooking(ctx context.Context, bookingID int64) (bool, error)
}

type MemberReader interface {
	Get(ctx context.Context, caller *auth.Caller, id int64) (*member.Member, error)
}

type BookingReader interface {
	Get(ctx context.Context, caller *auth.Caller, id int64) (*booking.Booking, error)
}

type Service struct {
	repo     RepositoryAPI
	tx       database.Transactor
	members  MemberReader
	bookings BookingReader
	cards    booking.CardRedeemer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, tx database.Transactor, members MemberReader, bookings BookingReader, cards booking.CardRedeemer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		members:  members,
		bookings: bookings,
		cards:    cards,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for check-in timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create records a visit. A visit for a card-paid booking reuses the booking's
// charge; other card visits charge the card in the same transaction.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, dto CreateCheckInDTO) (*CheckIn, error) {
	m, err := s.members.Get(ctx, caller, dto.MemberID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, internal.NewValidationFieldError("member_id", "member is not active", internal.ErrCodeValidationFailed)
	}

	c := &CheckIn{
		BrandID:       m.BrandID,
		StoreID:       m.StoreID,
		MemberID:      m.ID,
		PaymentMethod: dto.PaymentMethod,
		CheckedInAt:   s.now().UTC(),
		CreatedBy:     caller.UserID,
	}

	if dto.BookingID != nil {
		b, err := s.bookings.Get(ctx, caller, *dto.BookingID)
		if err != nil {
			return nil, err
		}
		if b.MemberID != m.ID {
			return nil, internal.NewValidationFieldError("booking_id", "booking belongs to another member", internal.ErrCodeValidationFailed)
		}
		if b.Status == booking.StatusCancelled {
			return nil, internal.NewValidationFieldError("booking_id", "booking is cancelled", internal.ErrCodeValidationFailed)
		}
		c.BookingID = &b.ID
		if b.IsCardPaid() {
			c.PaymentMethod = PaymentBooking
			c.MembershipCardID = b.MembershipCardID
		} else if c.PaymentMethod == "" {
			c.PaymentMethod = string(b.PaymentMethod)
		}
	}
	if c.PaymentMethod == PaymentMembershipCard {
		c.MembershipCardID = dto.MembershipCardID
	}
	charge := c.PaymentMethod == PaymentMembershipCard && c.MembershipCardID != nil

	var (
		charged *card.Card
		effects []card.Effect
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if c.BookingID != nil {
			exists, err := repo.ExistsForBooking(ctx, *c.BookingID)
			if err != nil {
				return err
			}
			if exists {
				return internal.NewValidationFieldError("booking_id", "booking is already checked in", internal.ErrCodeValidationFailed)
			}
		}
		if charge {
			var err error
			charged, effects, err = s.cards.RedeemWithTx(ctx, tx, *c.MembershipCardID, *m)
			if err != nil {
				return err
			}
		}
		return repo.Create(ctx, c)
	})
	if err != nil {
		if charge && errors.Is(err, internal.ErrCardExpired) {
			if _, expErr := s.cards.ExpireIfDue(ctx, *c.MembershipCardID); expErr != nil {
				s.logger.WarnContext(ctx, "lazy card expiry failed", "card_id", *c.MembershipCardID, "error", expErr)
			}
		}
		s.logger.WarnContext(ctx, "check-in rejected", "member_id", m.ID, "error", err)
		return nil, err
	}

	s.cards.Publish(ctx, charged, effects)

	s.logger.InfoContext(ctx, "member checked in",
		"check_in_id", c.ID,
		"member_id", c.MemberID,
		"payment_method", c.PaymentMethod)
	return c, nil
}

func (s *Service) Get(ctx context.Context, caller *auth.Caller, id int64) (*CheckIn, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureInScope(caller, auth.ResourceCheckIn, c.TenantRef()); err != nil {
		s.logger.WarnContext(ctx, "check-in outside caller scope", "check_in_id", id, "user_id", caller.UserID)
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*CheckIn, error) {
	scope := auth.ResolveScopeFilter(caller, auth.ResourceCheckIn)
	checkIns, err := s.repo.List(ctx, scope, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list check-ins", "error", err, "scope", scope.Kind)
		return nil, err
	}
	return checkIns, nil
}
