package coach_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/pkg/redis"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type memoryCache struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	if m.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) Key(parts ...string) string {
	return "gym:" + strings.Join(parts, ":")
}

var _ = Describe("CachedLookup", func() {
	var (
		ctx    context.Context
		next   *stubLookup
		cache  *memoryCache
		cached *coach.CachedLookup
	)

	BeforeEach(func() {
		ctx = context.Background()
		next = &stubLookup{coaches: map[string]*coach.Coach{
			"E-1": {
				ID:             3,
				BrandID:        1,
				StoreID:        2,
				EmployeeNumber: "E-1",
				Status:         coach.StatusActive,
				Specialties:    []string{coach.SpecialtyGroupFitness},
				Roles:          []auth.Role{auth.RoleGroupFitnessInstructor},
			},
		}}
		cache = newMemoryCache()
		cached = coach.NewCachedLookup(next, cache, time.Minute, quietLogger())
	})

	It("reads through on a miss and serves later calls from the cache", func() {
		first, err := cached.FindByEmployeeNumber(ctx, 1, "E-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(cache.data).To(HaveKey("gym:coach:1:E-1"))
		Expect(cache.ttls["gym:coach:1:E-1"]).To(Equal(time.Minute))

		second, err := cached.FindByEmployeeNumber(ctx, 1, "E-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(1))
		Expect(second.Qualifies(coach.SpecializationGroup)).To(BeTrue())
		Expect(second.ID).To(Equal(first.ID))
	})

	It("does not cache misses", func() {
		_, err := cached.FindByEmployeeNumber(ctx, 1, "E-9")
		Expect(err).To(MatchError(internal.ErrCoachNotFound))
		Expect(cache.data).To(BeEmpty())
	})

	It("falls back to the lookup when the cache is unavailable", func() {
		cache.failGet = true

		c, err := cached.FindByEmployeeNumber(ctx, 1, "E-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.ID).To(Equal(int64(3)))
	})

	It("ignores corrupt entries", func() {
		cache.data["gym:coach:1:E-1"] = "{not json"

		c, err := cached.FindByEmployeeNumber(ctx, 1, "E-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.ID).To(Equal(int64(3)))
		Expect(next.calls).To(Equal(1))
	})

	It("drops entries on invalidate", func() {
		_, err := cached.FindByEmployeeNumber(ctx, 1, "E-1")
		Expect(err).NotTo(HaveOccurred())

		Expect(cached.Invalidate(ctx, 1, "E-1")).To(Succeed())
		Expect(cache.data).To(BeEmpty())
	})
})
