package card_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/card"
	cardPostgres "github.com/frahmantamala/gym-management/internal/card/postgres"
	"github.com/frahmantamala/gym-management/internal/core/database"
	cardDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/card"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/member"
	memberPostgres "github.com/frahmantamala/gym-management/internal/member/postgres"
	"github.com/frahmantamala/gym-management/pkg/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.CardEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ce, ok := ev.(*events.CardEvent); ok {
		p.events = append(p.events, ce)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(&memberDatamodel.Member{}, &cardDatamodel.MembershipCard{})).To(Succeed())
	return db
}

var _ = Describe("Card Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		repo      card.RepositoryAPI
		svc       *card.Service
		publisher *recordingPublisher
		now       time.Time
		staff     *auth.Caller
		owner     *memberDatamodel.Member
		outsider  *memberDatamodel.Member
		slogger   *slog.Logger
	)

	newService := func(opts ...card.Option) *card.Service {
		members := member.NewService(memberPostgres.NewMemberRepository(db), slogger)
		base := []card.Option{
			card.WithClock(func() time.Time { return now }),
			card.WithPublisher(publisher),
			card.WithMetrics(metrics.NewCardMetrics(prometheus.NewRegistry())),
		}
		return card.NewService(repo, database.NewClient(db), members, card.NewMachine(card.DefaultPolicy()), slogger, append(base, opts...)...)
	}

	seedCard := func(c card.Card) *card.Card {
		c.MemberID = owner.ID
		c.BrandID = owner.BrandID
		c.StoreID = owner.StoreID
		if c.CardNumber == "" {
			c.CardNumber = card.GenerateCardNumber()
		}
		if c.Version == 0 {
			c.Version = 1
		}
		Expect(repo.Create(ctx, &c)).To(Succeed())
		return &c
	}

	stored := func(id int64) *card.Card {
		c, err := repo.GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db = openTestDB()
		repo = cardPostgres.NewCardRepository(db)
		publisher = &recordingPublisher{}
		now = t0

		owner = &memberDatamodel.Member{BrandID: 1, StoreID: 10, Name: "Owner", Status: "active"}
		outsider = &memberDatamodel.Member{BrandID: 1, StoreID: 11, Name: "Outsider", Status: "active"}
		Expect(db.Create(owner).Error).To(Succeed())
		Expect(db.Create(outsider).Error).To(Succeed())

		storeID := int64(10)
		staff = &auth.Caller{UserID: 7, BrandID: 1, StoreID: &storeID, Roles: []auth.Role{auth.RoleStaff}}
		svc = newService()
	})

	Describe("Create", func() {
		It("issues an inactive card to a member in scope", func() {
			c, err := svc.Create(ctx, staff, card.CreateCardDTO{
				MemberID:      owner.ID,
				BillingType:   "times",
				TotalSessions: 10,
				Price:         decimal.RequireFromString("120.50"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).To(BeNumerically(">", 0))
			Expect(c.Status).To(Equal(card.StatusInactive))
			Expect(c.StoreID).To(Equal(int64(10)))
			Expect(c.IssueDate).To(Equal(t0))
			Expect(stored(c.ID).Price.Equal(decimal.RequireFromString("120.50"))).To(BeTrue())
			Expect(publisher.types()).To(BeEmpty())
		})

		It("activates on purchase when configured", func() {
			svc = newService(card.WithActivateOnPurchase(true))
			days := 30
			c, err := svc.Create(ctx, staff, card.CreateCardDTO{MemberID: owner.ID, BillingType: "period", ValidityDays: &days})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(card.StatusActive))
			Expect(*stored(c.ID).ExpiryDate).To(BeTemporally("==", t0.AddDate(0, 0, 30)))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeCardActivated}))
		})

		It("refuses members outside the caller's store", func() {
			_, err := svc.Create(ctx, staff, card.CreateCardDTO{MemberID: outsider.ID, BillingType: "unlimited"})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("reports unknown members", func() {
			_, err := svc.Create(ctx, staff, card.CreateCardDTO{MemberID: 404, BillingType: "unlimited"})
			Expect(errors.Is(err, internal.ErrMemberNotFound)).To(BeTrue())
		})

		It("rejects duplicate card numbers", func() {
			_, err := svc.Create(ctx, staff, card.CreateCardDTO{MemberID: owner.ID, CardNumber: "MC-DUP", BillingType: "unlimited"})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Create(ctx, staff, card.CreateCardDTO{MemberID: owner.ID, CardNumber: "MC-DUP", BillingType: "unlimited"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("separates missing cards from cards outside the scope", func() {
			c := seedCard(card.Card{BillingType: card.BillingUnlimited, IssueDate: t0, Status: card.StatusInactive})

			other := *c
			other.ID = 0
			other.CardNumber = "MC-OTHER"
			other.StoreID = 11
			Expect(repo.Create(ctx, &other)).To(Succeed())

			_, err := svc.Get(ctx, staff, other.ID)
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			_, err = svc.Get(ctx, staff, 999)
			Expect(errors.Is(err, internal.ErrCardNotFound)).To(BeTrue())

			got, err := svc.Get(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CardNumber).To(Equal(c.CardNumber))
		})
	})

	Describe("ConsumeSession", func() {
		var c *card.Card

		BeforeEach(func() {
			c = seedCard(card.Card{
				BillingType:       card.BillingTimes,
				TotalSessions:     10,
				RemainingSessions: 10,
				IssueDate:         t0.Add(-time.Hour),
				ActivationDate:    timePtr(t0.Add(-time.Hour)),
				Status:            card.StatusActive,
			})
		})

		It("consumes ten sessions, expires the card and then reports exhaustion", func() {
			for i := 0; i < 10; i++ {
				_, err := svc.ConsumeSession(ctx, staff, c.ID)
				Expect(err).NotTo(HaveOccurred())
			}

			final := stored(c.ID)
			Expect(final.RemainingSessions).To(Equal(0))
			Expect(final.Status).To(Equal(card.StatusExpired))
			Expect(final.Version).To(Equal(int64(11)))

			_, err := svc.ConsumeSession(ctx, staff, c.ID)
			Expect(err).To(MatchError(internal.ErrCardExhausted))

			types := publisher.types()
			Expect(types).To(HaveLen(11))
			Expect(types[10]).To(Equal(events.EventTypeCardExpired))
		})

		It("lets exactly one of two concurrent consumers take the last session", func() {
			last := seedCard(card.Card{
				BillingType:       card.BillingTimes,
				TotalSessions:     5,
				RemainingSessions: 1,
				IssueDate:         t0.Add(-time.Hour),
				ActivationDate:    timePtr(t0.Add(-time.Hour)),
				Status:            card.StatusActive,
			})

			var wg sync.WaitGroup
			results := make(chan error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := svc.ConsumeSession(ctx, staff, last.ID)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			var successes, exhausted int
			for err := range results {
				switch {
				case err == nil:
					successes++
				case errors.Is(err, internal.ErrCardExhausted):
					exhausted++
				}
			}
			Expect(successes).To(Equal(1))
			Expect(exhausted).To(Equal(1))
			Expect(stored(last.ID).RemainingSessions).To(Equal(0))
		})

		It("expires a card lazily when consumed past its expiry", func() {
			Expect(db.Model(&cardDatamodel.MembershipCard{}).Where("id = ?", c.ID).
				Update("expiry_date", t0.Add(-time.Minute)).Error).To(Succeed())

			_, err := svc.ConsumeSession(ctx, staff, c.ID)
			Expect(err).To(MatchError(internal.ErrCardExpired))

			after := stored(c.ID)
			Expect(after.Status).To(Equal(card.StatusExpired))
			Expect(after.RemainingSessions).To(Equal(10))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeCardExpired}))
		})

		It("rejects cards outside the caller's scope without touching them", func() {
			storeID := int64(11)
			other := &auth.Caller{UserID: 8, BrandID: 1, StoreID: &storeID, Roles: []auth.Role{auth.RoleStaff}}

			_, err := svc.ConsumeSession(ctx, other, c.ID)
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
			Expect(stored(c.ID).RemainingSessions).To(Equal(10))
		})
	})

	Describe("versioned transitions", func() {
		It("freezes and unfreezes with the expiry extended", func() {
			c := seedCard(card.Card{
				BillingType:    card.BillingPeriod,
				IssueDate:      t0.Add(-time.Hour),
				ActivationDate: timePtr(t0.Add(-time.Hour)),
				ExpiryDate:     timePtr(t0.AddDate(0, 0, 30)),
				Status:         card.StatusActive,
			})

			frozen, err := svc.Freeze(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(frozen.Status).To(Equal(card.StatusFrozen))
			Expect(frozen.Version).To(Equal(int64(2)))

			now = t0.Add(5 * 24 * time.Hour)
			back, err := svc.Unfreeze(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(back.Status).To(Equal(card.StatusActive))

			persisted := stored(c.ID)
			Expect(*persisted.ExpiryDate).To(BeTemporally("==", t0.AddDate(0, 0, 35)))
			Expect(persisted.FrozenAt).To(BeNil())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeCardFrozen, events.EventTypeCardUnfrozen}))
		})

		It("refunds once and carries the price on the event", func() {
			c := seedCard(card.Card{
				BillingType: card.BillingUnlimited,
				IssueDate:   t0,
				Status:      card.StatusInactive,
				Price:       decimal.RequireFromString("300.00"),
			})

			_, err := svc.Refund(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Refund(ctx, staff, c.ID)
			Expect(err).To(MatchError(internal.ErrInvalidCardTransition))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeCardRefunded))
			Expect(publisher.events[0].Amount.Equal(decimal.RequireFromString("300.00"))).To(BeTrue())
		})

		It("activates an issued card", func() {
			c := seedCard(card.Card{BillingType: card.BillingUnlimited, IssueDate: t0.Add(-time.Hour), Status: card.StatusInactive})

			out, err := svc.Activate(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Status).To(Equal(card.StatusActive))
			Expect(*stored(c.ID).ActivationDate).To(BeTemporally("==", t0))
		})

		It("refuses a write based on a stale version", func() {
			c := seedCard(card.Card{BillingType: card.BillingUnlimited, IssueDate: t0, Status: card.StatusInactive})
			stale := *c
			stale.Status = card.StatusRefunded

			ok, err := repo.UpdateState(ctx, c)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = repo.UpdateState(ctx, &stale)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(stored(c.ID).Status).To(Equal(card.StatusInactive))
		})

		It("expires a card found past expiry when freezing", func() {
			c := seedCard(card.Card{
				BillingType:    card.BillingPeriod,
				IssueDate:      t0.AddDate(0, 0, -40),
				ActivationDate: timePtr(t0.AddDate(0, 0, -40)),
				ExpiryDate:     timePtr(t0.AddDate(0, 0, -10)),
				Status:         card.StatusActive,
			})

			_, err := svc.Freeze(ctx, staff, c.ID)
			Expect(err).To(MatchError(internal.ErrCardExpired))
			Expect(stored(c.ID).Status).To(Equal(card.StatusExpired))
		})
	})

	Describe("CheckEligibility", func() {
		It("reports the reason without writing", func() {
			c := seedCard(card.Card{
				BillingType:    card.BillingPeriod,
				IssueDate:      t0.AddDate(0, 0, -40),
				ActivationDate: timePtr(t0.AddDate(0, 0, -40)),
				ExpiryDate:     timePtr(t0.Add(-time.Second)),
				Status:         card.StatusActive,
			})

			e, err := svc.CheckEligibility(ctx, staff, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Eligible).To(BeFalse())
			Expect(e.Reason).To(Equal(internal.ErrCodeCardExpired))
			Expect(stored(c.ID).Status).To(Equal(card.StatusActive))
		})
	})

	Describe("ExpireDue", func() {
		It("expires only active cards past their expiry", func() {
			due := seedCard(card.Card{BillingType: card.BillingPeriod, IssueDate: t0.AddDate(0, 0, -40), ActivationDate: timePtr(t0.AddDate(0, 0, -40)), ExpiryDate: timePtr(t0.Add(-time.Hour)), Status: card.StatusActive})
			fresh := seedCard(card.Card{BillingType: card.BillingPeriod, IssueDate: t0, ActivationDate: timePtr(t0), ExpiryDate: timePtr(t0.AddDate(0, 0, 30)), Status: card.StatusActive})
			frozen := seedCard(card.Card{BillingType: card.BillingPeriod, IssueDate: t0.AddDate(0, 0, -40), ActivationDate: timePtr(t0.AddDate(0, 0, -40)), ExpiryDate: timePtr(t0.Add(-time.Hour)), FrozenAt: timePtr(t0.AddDate(0, 0, -20)), Status: card.StatusFrozen})

			count, err := svc.ExpireDue(ctx, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
			Expect(stored(due.ID).Status).To(Equal(card.StatusExpired))
			Expect(stored(fresh.ID).Status).To(Equal(card.StatusActive))
			Expect(stored(frozen.ID).Status).To(Equal(card.StatusFrozen))
		})
	})
})

var _ = Describe("Card Repository", func() {
	It("takes the last session only once", func() {
		ctx := context.Background()
		db := openTestDB()
		repo := cardPostgres.NewCardRepository(db)

		c := &card.Card{CardNumber: "MC-LAST", BrandID: 1, StoreID: 1, MemberID: 1, BillingType: card.BillingTimes, TotalSessions: 3, RemainingSessions: 1, IssueDate: t0, Status: card.StatusActive, Version: 1}
		Expect(repo.Create(ctx, c)).To(Succeed())

		ok, err := repo.DecrementSession(ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = repo.DecrementSession(ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		after, err := repo.GetByID(ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(after.RemainingSessions).To(Equal(0))
		Expect(after.Status).To(Equal(card.StatusExpired))
	})

	It("never decrements cards that are not times cards", func() {
		ctx := context.Background()
		db := openTestDB()
		repo := cardPostgres.NewCardRepository(db)

		c := &card.Card{CardNumber: "MC-P", BrandID: 1, StoreID: 1, MemberID: 1, BillingType: card.BillingPeriod, RemainingSessions: 0, IssueDate: t0, Status: card.StatusActive, Version: 1}
		Expect(repo.Create(ctx, c)).To(Succeed())

		ok, err := repo.DecrementSession(ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
