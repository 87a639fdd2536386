package member_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
	"github.com/frahmantamala/gym-management/internal/member"
	memberPostgres "github.com/frahmantamala/gym-management/internal/member/postgres"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMember(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Member Suite")
}

var _ = Describe("Member Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *member.Handler
		router  chi.Router
		rows    []*memberDatamodel.Member
	)

	storeCaller := func(storeID int64) *auth.Caller {
		return &auth.Caller{UserID: 1, BrandID: 1, StoreID: &storeID, Roles: []auth.Role{auth.RoleStaff}}
	}

	do := func(path string, caller *auth.Caller) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if caller != nil {
			req = req.WithContext(auth.WithCaller(context.Background(), caller))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&memberDatamodel.Member{})).To(Succeed())

		rows = []*memberDatamodel.Member{
			{BrandID: 1, StoreID: 10, Name: "Ana", Status: "active"},
			{BrandID: 1, StoreID: 10, Name: "Ben", Status: "active"},
			{BrandID: 1, StoreID: 11, Name: "Cy", Status: "active"},
			{BrandID: 2, StoreID: 20, Name: "Di", Status: "inactive"},
		}
		Expect(db.Create(rows).Error).To(Succeed())

		svc := member.NewService(memberPostgres.NewMemberRepository(db), slogger)
		handler = member.NewHandler(svc, slogger)

		router = chi.NewRouter()
		router.Get("/members", handler.ListMembers)
		router.Get("/members/{id}", handler.GetMember)
	})

	It("lists members of the caller's store only", func() {
		w := do("/members", storeCaller(10))
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp member.MembersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Members).To(HaveLen(2))
		Expect(resp.Members[0].Name).To(Equal("Ana"))
		Expect(resp.Limit).To(Equal(20))
	})

	It("lists every member for the super role", func() {
		w := do("/members?limit=2&offset=2", &auth.Caller{UserID: 1, Roles: []auth.Role{auth.RoleAdmin}})
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp member.MembersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Members).To(HaveLen(2))
		Expect(resp.Members[0].Name).To(Equal("Cy"))
	})

	It("returns an empty list when the caller has no tenant", func() {
		w := do("/members", &auth.Caller{UserID: 1, Roles: []auth.Role{auth.RoleStaff}})
		var resp member.MembersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Members).To(BeEmpty())
	})

	It("returns a member in scope", func() {
		w := do("/members/1", storeCaller(10))
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("returns 403 for a member in another store", func() {
		w := do("/members/3", storeCaller(10))
		Expect(w.Code).To(Equal(http.StatusForbidden))

		var env transport.ErrorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Code).To(Equal(internal.ErrCodeForbidden))
		Expect(env.Path).To(Equal("/members/3"))
	})

	It("returns 404 for an unknown member", func() {
		w := do("/members/999", storeCaller(10))
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 400 for a malformed id", func() {
		w := do("/members/abc", storeCaller(10))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 401 without a caller", func() {
		w := do("/members", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
