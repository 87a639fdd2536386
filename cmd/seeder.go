package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/frahmantamala/gym-management/internal/coach"
	"github.com/frahmantamala/gym-management/internal/core/database"
	cardDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/card"
	coachDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/coach"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
	tenantDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a demo brand with two stores, one user per role, coaches, members and membership cards.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := database.OpenPostgres(sqlDB.DB)
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			return seed(tx, string(hash))
		})
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		fmt.Printf("Seed complete. Every user logs in with password %q\n", seedPassword)
	},
}

type seedUser struct {
	email          string
	name           string
	store          int
	employeeNumber string
	roles          []string
}

func clearSeedData(tx *gorm.DB) error {
	tables := []string{
		"billing_ledger_entries", "check_ins", "bookings", "membership_cards",
		"coaches", "members", "user_roles", "users", "stores", "brands",
	}
	for _, t := range tables {
		if err := tx.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", t, err)
		}
	}
	fmt.Println("Cleared existing data")
	return nil
}

func seed(tx *gorm.DB, passwordHash string) error {
	brand := tenantDatamodel.Brand{Name: "Iron Temple"}
	if err := tx.Where(tenantDatamodel.Brand{Name: brand.Name}).FirstOrCreate(&brand).Error; err != nil {
		return fmt.Errorf("seeding brand: %w", err)
	}

	stores := []tenantDatamodel.Store{
		{BrandID: brand.ID, Name: "Iron Temple Downtown"},
		{BrandID: brand.ID, Name: "Iron Temple Riverside"},
	}
	for i := range stores {
		if err := tx.Where(tenantDatamodel.Store{BrandID: brand.ID, Name: stores[i].Name}).FirstOrCreate(&stores[i]).Error; err != nil {
			return fmt.Errorf("seeding store %s: %w", stores[i].Name, err)
		}
	}

	users := []seedUser{
		{email: "admin@gym.local", name: "Platform Admin", store: -1, roles: []string{"admin"}},
		{email: "brand@gym.local", name: "Brand Manager", store: -1, roles: []string{"brand_manager"}},
		{email: "store@gym.local", name: "Downtown Manager", store: 0, roles: []string{"store_manager"}},
		{email: "staff@gym.local", name: "Front Desk", store: 0, roles: []string{"staff"}},
		{email: "pt@gym.local", name: "Pat Trainer", store: 0, employeeNumber: "PT-001", roles: []string{"coach", "personal_trainer"}},
		{email: "group@gym.local", name: "Gale Instructor", store: 0, employeeNumber: "GF-001", roles: []string{"coach", "group_fitness_instructor"}},
	}

	userIDs := make(map[string]int64, len(users))
	for _, su := range users {
		row := userDatamodel.User{
			Email:        su.email,
			Username:     su.email[:len(su.email)-len("@gym.local")],
			Name:         su.name,
			PasswordHash: passwordHash,
			BrandID:      brand.ID,
			IsActive:     true,
		}
		if su.store >= 0 {
			row.StoreID = &stores[su.store].ID
		}
		if su.employeeNumber != "" {
			emp := su.employeeNumber
			row.EmployeeNumber = &emp
		}
		if err := tx.Where(userDatamodel.User{Email: su.email}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seeding user %s: %w", su.email, err)
		}
		userIDs[su.email] = row.ID

		for _, role := range su.roles {
			ur := userDatamodel.UserRole{UserID: row.ID, Role: role}
			if err := tx.Where(userDatamodel.UserRole{UserID: row.ID, Role: role}).FirstOrCreate(&ur).Error; err != nil {
				return fmt.Errorf("granting %s to %s: %w", role, su.email, err)
			}
		}
		fmt.Println("Seeded user:", su.email, su.roles)
	}

	coaches := []coachDatamodel.Coach{
		{EmployeeNumber: "PT-001", Name: "Pat Trainer", Specialties: []string{coach.SpecialtyPersonalTraining}},
		{EmployeeNumber: "GF-001", Name: "Gale Instructor", Specialties: []string{coach.SpecialtyGroupFitness}},
	}
	for i, email := range []string{"pt@gym.local", "group@gym.local"} {
		uid := userIDs[email]
		c := coaches[i]
		c.BrandID = brand.ID
		c.StoreID = stores[0].ID
		c.UserID = &uid
		c.Status = coach.StatusActive
		if err := tx.Where(coachDatamodel.Coach{BrandID: brand.ID, EmployeeNumber: c.EmployeeNumber}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seeding coach %s: %w", c.EmployeeNumber, err)
		}
	}

	members := []memberDatamodel.Member{
		{BrandID: brand.ID, StoreID: stores[0].ID, Name: "Dana Downtown", Email: "dana@example.com", Status: "active"},
		{BrandID: brand.ID, StoreID: stores[1].ID, Name: "Riley Riverside", Email: "riley@example.com", Status: "active"},
	}
	for i := range members {
		if err := tx.Where(memberDatamodel.Member{BrandID: brand.ID, Email: members[i].Email}).FirstOrCreate(&members[i]).Error; err != nil {
			return fmt.Errorf("seeding member %s: %w", members[i].Name, err)
		}
	}

	now := time.Now().UTC()
	machine := card.NewMachine(card.DefaultPolicy())
	validity := 30
	cards := []card.NewCardParams{
		{MemberID: members[0].ID, BillingType: card.BillingTimes, TotalSessions: 10, Price: decimal.RequireFromString("120.00")},
		{MemberID: members[1].ID, BillingType: card.BillingPeriod, ValidityDays: &validity, Price: decimal.RequireFromString("89.00")},
	}
	for i, p := range cards {
		m := members[i]
		p.CardNumber = fmt.Sprintf("SEED-%03d", i+1)
		p.BrandID = m.BrandID
		p.StoreID = m.StoreID
		p.IssueDate = now
		c, err := card.NewCard(p)
		if err != nil {
			return fmt.Errorf("building seed card: %w", err)
		}
		active, _, err := machine.Transition(*c, card.Event{Kind: card.EventActivate, At: now})
		if err != nil {
			return fmt.Errorf("activating seed card: %w", err)
		}

		row := card.ToDataModel(&active)
		if err := tx.Where(cardDatamodel.MembershipCard{CardNumber: row.CardNumber}).FirstOrCreate(row).Error; err != nil {
			return fmt.Errorf("seeding card %s: %w", row.CardNumber, err)
		}
	}

	return nil
}
