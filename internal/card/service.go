package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/core/database"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/pkg/metrics"
	"gorm.io/gorm"
)

type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, id int64) (*Card, error)
	ListByMember(ctx context.Context, memberID int64, scope auth.ScopeFilter) ([]*Card, error)
	// DecrementSession atomically takes one session from an active times
	// card with sessions left. It reports false when no row qualified.
	DecrementSession(ctx context.Context, id int64) (bool, error)
	// UpdateState writes the lifecycle columns of c when the stored version
	// still equals c.Version, and bumps the version.
	UpdateState(ctx context.Context, c *Card) (bool, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]*Card, error)
}

// MemberReader resolves the owner of a new card within the caller's scope.
type MemberReader interface {
	Get(ctx context.Context, caller *auth.Caller, id int64) (*member.Member, error)
}

// Publisher receives card events once their transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo               RepositoryAPI
	tx                 database.Transactor
	members            MemberReader
	machine            *Machine
	publisher          Publisher
	metrics            *metrics.CardMetrics
	logger             *slog.Logger
	activateOnPurchase bool
	now                func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.CardMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithActivateOnPurchase makes Create activate new cards immediately.
func WithActivateOnPurchase(enabled bool) Option {
	return func(s *Service) { s.activateOnPurchase = enabled }
}

func NewService(repo RepositoryAPI, tx database.Transactor, members MemberReader, machine *Machine, logger *slog.Logger, opts ...Option) *Service {
	if machine == nil {
		machine = NewMachine(DefaultPolicy())
	}
	s := &Service{
		repo:    repo,
		tx:      tx,
		members: members,
		machine: machine,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Create issues a card to a member the caller can see.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, dto CreateCardDTO) (*Card, error) {
	m, err := s.members.Get(ctx, caller, dto.MemberID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	issue := now
	if dto.IssueDate != nil {
		issue = dto.IssueDate.UTC()
	}

	c, err := NewCard(NewCardParams{
		CardNumber:    dto.CardNumber,
		BrandID:       m.BrandID,
		StoreID:       m.StoreID,
		MemberID:      m.ID,
		BillingType:   BillingType(dto.BillingType),
		TotalSessions: dto.TotalSessions,
		ValidityDays:  dto.ValidityDays,
		IssueDate:     issue,
		ExpiryDate:    dto.ExpiryDate,
		Price:         dto.Price,
	})
	if err != nil {
		return nil, err
	}

	var effects []Effect
	if s.activateOnPurchase {
		activated, eff, err := s.machine.Transition(*c, Event{Kind: EventActivate, At: now})
		if err != nil {
			return nil, err
		}
		c, effects = &activated, eff
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to create membership card", "error", err, "member_id", m.ID)
		return nil, database.TranslateError(err)
	}

	s.logger.InfoContext(ctx, "membership card issued",
		"card_id", c.ID,
		"member_id", c.MemberID,
		"billing_type", c.BillingType,
		"status", c.Status)

	s.Publish(ctx, c, effects)
	return c, nil
}

// Get returns ErrCardNotFound for unknown ids and ErrForbidden for cards
// outside the caller's scope.
func (s *Service) Get(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	return s.load(ctx, s.repo, caller, id)
}

func (s *Service) ListByMember(ctx context.Context, caller *auth.Caller, memberID int64) ([]*Card, error) {
	if _, err := s.members.Get(ctx, caller, memberID); err != nil {
		return nil, err
	}
	return s.repo.ListByMember(ctx, memberID, auth.ResolveScopeFilter(caller, auth.ResourceMembershipCard))
}

func (s *Service) load(ctx context.Context, repo RepositoryAPI, caller *auth.Caller, id int64) (*Card, error) {
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller != nil {
		if err := auth.EnsureInScope(caller, auth.ResourceMembershipCard, c.TenantRef()); err != nil {
			s.logger.WarnContext(ctx, "membership card outside caller scope", "card_id", id, "user_id", caller.UserID)
			return nil, err
		}
	}
	return c, nil
}

// CheckEligibility is a pure read. Cards found past expiry are reported
// as expired without being written.
func (s *Service) CheckEligibility(ctx context.Context, caller *auth.Caller, id int64) (*Eligibility, error) {
	c, err := s.load(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	return NewEligibility(c, s.machine.CheckEligibility(*c, s.clock())), nil
}

func (s *Service) Activate(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	return s.apply(ctx, caller, id, EventActivate)
}

func (s *Service) Freeze(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	return s.apply(ctx, caller, id, EventFreeze)
}

func (s *Service) Unfreeze(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	return s.apply(ctx, caller, id, EventUnfreeze)
}

func (s *Service) Refund(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	return s.apply(ctx, caller, id, EventRefund)
}

// apply runs a versioned transition. A card found past expiry while
// freezing is expired lazily before the error is returned.
func (s *Service) apply(ctx context.Context, caller *auth.Caller, id int64, kind EventKind) (*Card, error) {
	var (
		out     *Card
		effects []Effect
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := s.load(ctx, repo, caller, id)
		if err != nil {
			return err
		}

		next, eff, err := s.machine.Transition(*c, Event{Kind: kind, At: s.clock()})
		if err != nil {
			return err
		}

		ok, err := repo.UpdateState(ctx, &next)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrConcurrencyConflict
		}
		out, effects = &next, eff
		return nil
	})

	s.observe(kind, err)
	if err != nil {
		if errors.Is(err, internal.ErrCardExpired) {
			s.expireQuietly(ctx, id)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "membership card transition applied",
		"card_id", id,
		"event", kind,
		"status", out.Status)
	s.Publish(ctx, out, effects)
	return out, nil
}

// ConsumeSession takes one session from a times card in its own transaction.
func (s *Service) ConsumeSession(ctx context.Context, caller *auth.Caller, id int64) (*Card, error) {
	var (
		out     *Card
		effects []Effect
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := s.load(ctx, repo, caller, id)
		if err != nil {
			return err
		}
		out, effects, err = s.consume(ctx, repo, c)
		return err
	})

	s.observe(EventConsume, err)
	if err != nil {
		if errors.Is(err, internal.ErrCardExpired) {
			s.expireQuietly(ctx, id)
		}
		return nil, err
	}

	s.Publish(ctx, out, effects)
	return out, nil
}

// consume validates against the state machine, then relies on the
// conditional decrement for exclusion. When the decrement matches no row
// the fresh row is classified again so the caller sees the real reason.
func (s *Service) consume(ctx context.Context, repo RepositoryAPI, c *Card) (*Card, []Effect, error) {
	now := s.clock()
	if _, _, err := s.machine.Transition(*c, Event{Kind: EventConsume, At: now}); err != nil {
		return nil, nil, err
	}

	ok, err := repo.DecrementSession(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}

	fresh, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}

	if !ok {
		if _, _, err := s.machine.Transition(*fresh, Event{Kind: EventConsume, At: now}); err != nil {
			return nil, nil, err
		}
		return nil, nil, internal.ErrConcurrencyConflict
	}

	effects := []Effect{{Kind: EffectSessionConsumed, At: now}}
	if fresh.Status == StatusExpired {
		effects = append(effects, Effect{Kind: EffectExpired, At: now})
	}

	s.logger.InfoContext(ctx, "membership card session consumed",
		"card_id", fresh.ID,
		"remaining_sessions", fresh.RemainingSessions,
		"status", fresh.Status)
	return fresh, effects, nil
}

// RedeemWithTx charges one visit to a card inside the caller's transaction.
// Times cards lose a session; period and unlimited cards must be eligible.
// The returned effects must be published after the transaction commits.
func (s *Service) RedeemWithTx(ctx context.Context, tx *gorm.DB, cardID int64, owner member.Member) (*Card, []Effect, error) {
	repo := s.repo.WithTx(tx)
	c, err := repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}
	if c.MemberID != owner.ID || c.BrandID != owner.BrandID {
		return nil, nil, internal.NewValidationFieldError("membership_card_id",
			fmt.Sprintf("card %d does not belong to member %d", cardID, owner.ID), internal.ErrCodeValidationFailed)
	}

	if c.BillingType != BillingTimes {
		err := s.machine.CheckEligibility(*c, s.clock())
		s.observe(EventConsume, err)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	}

	out, effects, err := s.consume(ctx, repo, c)
	s.observe(EventConsume, err)
	return out, effects, err
}

// ExpireIfDue expires one card lazily when it is active and past expiry.
// It reports whether the card was expired.
func (s *Service) ExpireIfDue(ctx context.Context, id int64) (bool, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.expire(ctx, c)
}

func (s *Service) expire(ctx context.Context, c *Card) (bool, error) {
	now := s.clock()
	if c.Status != StatusActive || !c.PastExpiry(now) {
		return false, nil
	}

	next, effects, err := s.machine.Transition(*c, Event{Kind: EventExpire, At: now})
	if err != nil {
		return false, err
	}
	ok, err := s.repo.UpdateState(ctx, &next)
	if err != nil || !ok {
		return false, err
	}

	s.observe(EventExpire, nil)
	s.Publish(ctx, &next, effects)
	return true, nil
}

func (s *Service) expireQuietly(ctx context.Context, id int64) {
	if _, err := s.ExpireIfDue(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "lazy card expiry failed", "card_id", id, "error", err)
	}
}

// ExpireDue sweeps up to batch active cards past their expiry. Cards changed
// concurrently are skipped and picked up by the next sweep.
func (s *Service) ExpireDue(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 500
	}
	cards, err := s.repo.ListExpirable(ctx, s.clock(), batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, c := range cards {
		ok, err := s.expire(ctx, c)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to expire membership card", "card_id", c.ID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	s.logger.InfoContext(ctx, "membership card expiry sweep finished", "candidates", len(cards), "expired", expired)
	return expired, nil
}

var effectEventTypes = map[EffectKind]string{
	EffectActivated:       events.EventTypeCardActivated,
	EffectSessionConsumed: events.EventTypeCardSessionConsumed,
	EffectExpired:         events.EventTypeCardExpired,
	EffectFrozen:          events.EventTypeCardFrozen,
	EffectUnfrozen:        events.EventTypeCardUnfrozen,
	EffectRefunded:        events.EventTypeCardRefunded,
}

// Publish forwards committed effects to the event bus. Delivery failures are
// logged and never undo the transition.
func (s *Service) Publish(ctx context.Context, c *Card, effects []Effect) {
	if s.publisher == nil || c == nil {
		return
	}
	for _, e := range effects {
		eventType, ok := effectEventTypes[e.Kind]
		if !ok {
			continue
		}
		ev := events.NewCardEvent(eventType, e.At, c.ID, c.CardNumber, c.MemberID, c.BrandID, c.StoreID, c.RemainingSessions, c.Price)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish card event", "event_type", eventType, "card_id", c.ID, "error", err)
		}
	}
}

func (s *Service) observe(kind EventKind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if appErr, ok := internal.IsAppError(err); ok {
			outcome = string(appErr.Code)
		}
	}
	s.metrics.Observe(string(kind), outcome)
}
