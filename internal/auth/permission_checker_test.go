package auth

import (
	"errors"
	"sync"

	"github.com/frahmantamala/gym-management/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PermissionResolver", func() {
	var resolver *PermissionResolver

	BeforeEach(func() {
		resolver = NewPermissionResolver(DefaultPermissionTable())
	})

	Describe("CheckPermission", func() {
		It("allows the super role everything", func() {
			for _, res := range []Resource{ResourceBrand, ResourceStore, ResourceMembershipCard, Resource("unheard_of")} {
				for _, act := range crud {
					Expect(resolver.CheckPermission(RoleAdmin, res, act)).To(Succeed())
				}
			}
		})

		It("accepts super role aliases in any case", func() {
			Expect(resolver.CheckPermission(Role("Super_Admin"), ResourceBrand, ActionDelete)).To(Succeed())
			Expect(resolver.CheckPermission(Role("SUPERADMIN"), ResourceStore, ActionDelete)).To(Succeed())
		})

		It("lets staff create, read and update bookings", func() {
			Expect(resolver.CheckPermission(RoleStaff, ResourceBooking, ActionCreate)).To(Succeed())
			Expect(resolver.CheckPermission(RoleStaff, ResourceBooking, ActionRead)).To(Succeed())
			Expect(resolver.CheckPermission(RoleStaff, ResourceBooking, ActionUpdate)).To(Succeed())
		})

		It("denies staff deleting bookings with InsufficientPermission", func() {
			err := resolver.CheckPermission(RoleStaff, ResourceBooking, ActionDelete)
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())
		})

		It("uses the wildcard entry for managers", func() {
			Expect(resolver.CheckPermission(RoleStoreManager, ResourceBrand, ActionRead)).To(Succeed())
			err := resolver.CheckPermission(RoleStoreManager, ResourceBrand, ActionUpdate)
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())
		})

		It("is case-insensitive on role names", func() {
			Expect(resolver.CheckPermission(Role("Staff"), ResourceMember, ActionRead)).To(Succeed())
			Expect(resolver.CheckPermission(Role(" BRAND_MANAGER "), ResourceStore, ActionDelete)).To(Succeed())
		})

		It("rejects unknown roles with InvalidRole", func() {
			err := resolver.CheckPermission(Role("janitor"), ResourceMember, ActionRead)
			Expect(errors.Is(err, internal.ErrInvalidRole)).To(BeTrue())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(ContainSubstring("janitor"))
		})

		It("denies resources without an entry", func() {
			err := resolver.CheckPermission(RoleCoach, ResourceMembershipCard, ActionRead)
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())
		})

		It("does not mutate the shared sentinel", func() {
			_ = resolver.CheckPermission(RoleStaff, ResourceBooking, ActionDelete)
			Expect(internal.ErrInsufficientPermission.Message).NotTo(ContainSubstring("staff"))
		})
	})

	Describe("CheckAny", func() {
		It("allows when any role grants", func() {
			roles := []Role{RoleCoach, RoleStaff}
			Expect(resolver.CheckAny(roles, ResourceMembershipCard, ActionCreate)).To(Succeed())
		})

		It("reports InsufficientPermission when a known role denies", func() {
			roles := []Role{Role("ghost"), RoleCoach}
			err := resolver.CheckAny(roles, ResourceBooking, ActionDelete)
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())
		})

		It("reports InvalidRole when no role is known", func() {
			err := resolver.CheckAny([]Role{Role("ghost"), Role("phantom")}, ResourceBooking, ActionRead)
			Expect(errors.Is(err, internal.ErrInvalidRole)).To(BeTrue())
		})

		It("reports InvalidRole for an empty role list", func() {
			err := resolver.CheckAny(nil, ResourceBooking, ActionRead)
			Expect(errors.Is(err, internal.ErrInvalidRole)).To(BeTrue())
		})
	})

	Describe("custom tables", func() {
		It("keeps its own copy of the grants", func() {
			grants := map[Role]Grants{
				RoleStaff: {ResourceMember: {ActionRead}},
			}
			table := NewPermissionTable(RoleAdmin, grants)
			grants[RoleStaff][ResourceMember] = append(grants[RoleStaff][ResourceMember], ActionDelete)

			r := NewPermissionResolver(table)
			err := r.CheckPermission(RoleStaff, ResourceMember, ActionDelete)
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())
		})

		It("falls back to the default table", func() {
			r := NewPermissionResolver(nil)
			Expect(r.Table().SuperRole()).To(Equal(RoleAdmin))
		})
	})

	It("answers concurrent readers consistently", func() {
		var wg sync.WaitGroup
		failures := make(chan error, 64)
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := resolver.CheckPermission(RoleStaff, ResourceCheckIn, ActionCreate); err != nil {
					failures <- err
				}
			}()
		}
		wg.Wait()
		close(failures)
		Expect(failures).To(BeEmpty())
	})
})

var _ = Describe("Role", func() {
	DescribeTable("ParseRole",
		func(raw string, want Role, ok bool) {
			got, err := ParseRole(raw)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("plain", "coach", RoleCoach, true),
		Entry("upper case", "PERSONAL_TRAINER", RolePersonalTrainer, true),
		Entry("alias", "super-admin", RoleAdmin, true),
		Entry("unknown", "janitor", Role(""), false),
		Entry("empty", "", Role(""), false),
	)

	It("classifies the coach family", func() {
		Expect(RoleCoach.IsCoach()).To(BeTrue())
		Expect(RoleGroupFitnessInstructor.IsCoach()).To(BeTrue())
		Expect(RoleStaff.IsCoach()).To(BeFalse())
	})
})
