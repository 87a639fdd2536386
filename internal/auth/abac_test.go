package auth

import (
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
	tenantDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("ScopeFilter", func() {
	Describe("ResolveScopeFilter", func() {
		It("gives admins every tenant", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleAdmin}}, ResourceMember)
			Expect(f.Kind).To(Equal(ScopeAll))
		})

		It("limits brand managers to their brand", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleBrandManager}, BrandID: 7}, ResourceMember)
			Expect(f.Kind).To(Equal(ScopeBrand))
			Expect(f.BrandID).To(Equal(int64(7)))
		})

		It("limits store roles to their store", func() {
			for _, role := range []Role{RoleStoreManager, RoleCoach, RolePersonalTrainer, RoleGroupFitnessInstructor, RoleStaff} {
				f := ResolveScopeFilter(&Caller{Roles: []Role{role}, BrandID: 7, StoreID: int64Ptr(3)}, ResourceBooking)
				Expect(f.Kind).To(Equal(ScopeStore), string(role))
				Expect(f.StoreID).To(Equal(int64(3)))
			}
		})

		It("picks the widest scope across roles", func() {
			c := &Caller{Roles: []Role{RoleStaff, RoleBrandManager}, BrandID: 7, StoreID: int64Ptr(3)}
			Expect(ResolveScopeFilter(c, ResourceMember).Kind).To(Equal(ScopeBrand))
		})

		It("matches nothing when the store id is missing", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleStaff}, BrandID: 7}, ResourceMember)
			Expect(f.Kind).To(Equal(ScopeNone))
		})

		It("matches nothing when the brand id is missing", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleBrandManager}}, ResourceMember)
			Expect(f.Kind).To(Equal(ScopeNone))
		})

		It("matches nothing for unknown roles or no caller", func() {
			Expect(ResolveScopeFilter(&Caller{Roles: []Role{"ghost"}, BrandID: 1, StoreID: int64Ptr(1)}, ResourceMember).Kind).To(Equal(ScopeNone))
			Expect(ResolveScopeFilter(nil, ResourceMember).Kind).To(Equal(ScopeNone))
		})
	})

	Describe("Allows", func() {
		storeCaller := &Caller{Roles: []Role{RoleStaff}, BrandID: 1, StoreID: int64Ptr(10)}

		It("accepts rows in the caller's store", func() {
			Expect(ResolveScopeFilter(storeCaller, ResourceMember).Allows(StoreRef(1, 10))).To(BeTrue())
		})

		It("rejects other stores and brands", func() {
			f := ResolveScopeFilter(storeCaller, ResourceMember)
			Expect(f.Allows(StoreRef(1, 11))).To(BeFalse())
			Expect(f.Allows(StoreRef(2, 10))).To(BeFalse())
			Expect(f.Allows(TenantRef{BrandID: 1})).To(BeFalse())
		})

		It("lets brand-level resources through on brand match", func() {
			f := ResolveScopeFilter(storeCaller, ResourceBrand)
			Expect(f.Allows(TenantRef{BrandID: 1})).To(BeTrue())
			Expect(f.Allows(TenantRef{BrandID: 2})).To(BeFalse())
		})

		It("lets brand managers see every store in the brand", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleBrandManager}, BrandID: 1}, ResourceCheckIn)
			Expect(f.Allows(StoreRef(1, 10))).To(BeTrue())
			Expect(f.Allows(StoreRef(1, 99))).To(BeTrue())
			Expect(f.Allows(StoreRef(2, 10))).To(BeFalse())
		})
	})

	Describe("EnsureInScope", func() {
		It("returns Forbidden for rows outside the scope", func() {
			c := &Caller{Roles: []Role{RoleStaff}, BrandID: 1, StoreID: int64Ptr(10)}
			err := EnsureInScope(c, ResourceMembershipCard, StoreRef(1, 11))
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
			Expect(EnsureInScope(c, ResourceMembershipCard, StoreRef(1, 10))).To(Succeed())
		})
	})

	Describe("Apply", func() {
		var db *gorm.DB

		BeforeEach(func() {
			var err error
			db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(db.AutoMigrate(&memberDatamodel.Member{}, &tenantDatamodel.Store{})).To(Succeed())

			members := []memberDatamodel.Member{
				{BrandID: 1, StoreID: 10, Name: "a"},
				{BrandID: 1, StoreID: 10, Name: "b"},
				{BrandID: 1, StoreID: 11, Name: "c"},
				{BrandID: 2, StoreID: 20, Name: "d"},
			}
			Expect(db.Create(&members).Error).To(Succeed())

			stores := []tenantDatamodel.Store{
				{ID: 10, BrandID: 1, Name: "north"},
				{ID: 11, BrandID: 1, Name: "south"},
				{ID: 20, BrandID: 2, Name: "east"},
			}
			Expect(db.Create(&stores).Error).To(Succeed())
		})

		names := func(f ScopeFilter) []string {
			var out []string
			Expect(f.Apply(db.Model(&memberDatamodel.Member{})).Order("name").Pluck("name", &out).Error).To(Succeed())
			return out
		}

		It("returns all rows for ScopeAll", func() {
			Expect(names(ResolveScopeFilter(&Caller{Roles: []Role{RoleAdmin}}, ResourceMember))).To(Equal([]string{"a", "b", "c", "d"}))
		})

		It("filters by brand", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleBrandManager}, BrandID: 1}, ResourceMember)
			Expect(names(f)).To(Equal([]string{"a", "b", "c"}))
		})

		It("filters by brand and store", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleStaff}, BrandID: 1, StoreID: int64Ptr(10)}, ResourceMember)
			Expect(names(f)).To(Equal([]string{"a", "b"}))
		})

		It("fails closed", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleStaff}, BrandID: 1}, ResourceMember)
			Expect(names(f)).To(BeEmpty())
		})

		It("uses the id column for the store resource", func() {
			f := ResolveScopeFilter(&Caller{Roles: []Role{RoleStoreManager}, BrandID: 1, StoreID: int64Ptr(11)}, ResourceStore)
			var out []string
			Expect(f.Apply(db.Model(&tenantDatamodel.Store{})).Pluck("name", &out).Error).To(Succeed())
			Expect(out).To(Equal([]string{"south"}))
		})
	})
})
