package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	cardDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/card"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingType string

const (
	BillingTimes     BillingType = "times"
	BillingPeriod    BillingType = "period"
	BillingUnlimited BillingType = "unlimited"
)

func (b BillingType) IsValid() bool {
	switch b {
	case BillingTimes, BillingPeriod, BillingUnlimited:
		return true
	}
	return false
}

type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusFrozen   Status = "frozen"
	StatusRefunded Status = "refunded"
)

// IsTerminal reports whether no transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusRefunded
}

type Card struct {
	ID                int64           `json:"id"`
	CardNumber        string          `json:"card_number"`
	BrandID           int64           `json:"brand_id"`
	StoreID           int64           `json:"store_id"`
	MemberID          int64           `json:"member_id"`
	BillingType       BillingType     `json:"billing_type"`
	TotalSessions     int             `json:"total_sessions"`
	RemainingSessions int             `json:"remaining_sessions"`
	ValidityDays      *int            `json:"validity_days,omitempty"`
	IssueDate         time.Time       `json:"issue_date"`
	ActivationDate    *time.Time      `json:"activation_date,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	FrozenAt          *time.Time      `json:"frozen_at,omitempty"`
	RefundedAt        *time.Time      `json:"refunded_at,omitempty"`
	Status            Status          `json:"status"`
	Price             decimal.Decimal `json:"price"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (c *Card) TenantRef() auth.TenantRef {
	return auth.StoreRef(c.BrandID, c.StoreID)
}

// PastExpiry reports whether now is strictly after the expiry date.
func (c *Card) PastExpiry(now time.Time) bool {
	return c.ExpiryDate != nil && now.After(*c.ExpiryDate)
}

// NewCardParams describes a card at purchase time.
type NewCardParams struct {
	CardNumber    string
	BrandID       int64
	StoreID       int64
	MemberID      int64
	BillingType   BillingType
	TotalSessions int
	ValidityDays  *int
	IssueDate     time.Time
	ExpiryDate    *time.Time
	Price         decimal.Decimal
}

// NewCard validates p and returns an inactive card.
func NewCard(p NewCardParams) (*Card, error) {
	if !p.BillingType.IsValid() {
		return nil, internal.NewValidationFieldError("billing_type", fmt.Sprintf("billing_type %q is not supported", p.BillingType), internal.ErrCodeValidationFailed)
	}
	if p.BillingType == BillingTimes && p.TotalSessions < 1 {
		return nil, internal.NewValidationFieldError("total_sessions", "total_sessions must be at least 1 for times cards", internal.ErrCodeValidationFailed)
	}
	if p.BillingType != BillingTimes && p.TotalSessions != 0 {
		return nil, internal.NewValidationFieldError("total_sessions", "total_sessions only applies to times cards", internal.ErrCodeValidationFailed)
	}
	if p.ValidityDays != nil && *p.ValidityDays < 1 {
		return nil, internal.NewValidationFieldError("validity_days", "validity_days must be at least 1", internal.ErrCodeValidationFailed)
	}
	if p.BillingType == BillingPeriod && p.ValidityDays == nil && p.ExpiryDate == nil {
		return nil, internal.NewValidationFieldError("validity_days", "period cards need validity_days or expiry_date", internal.ErrCodeValidationFailed)
	}
	if p.IssueDate.IsZero() {
		return nil, internal.NewValidationFieldError("issue_date", "issue_date is required", internal.ErrCodeValidationFailed)
	}
	if p.ExpiryDate != nil && p.ExpiryDate.Before(p.IssueDate) {
		return nil, internal.NewValidationFieldError("expiry_date", "expiry_date must not be before issue_date", internal.ErrCodeValidationFailed)
	}
	if p.Price.IsNegative() {
		return nil, internal.NewValidationFieldError("price", "price must not be negative", internal.ErrCodeValidationFailed)
	}

	number := strings.TrimSpace(p.CardNumber)
	if number == "" {
		number = GenerateCardNumber()
	}

	return &Card{
		CardNumber:        number,
		BrandID:           p.BrandID,
		StoreID:           p.StoreID,
		MemberID:          p.MemberID,
		BillingType:       p.BillingType,
		TotalSessions:     p.TotalSessions,
		RemainingSessions: p.TotalSessions,
		ValidityDays:      p.ValidityDays,
		IssueDate:         p.IssueDate,
		ExpiryDate:        p.ExpiryDate,
		Status:            StatusInactive,
		Price:             p.Price,
		Version:           1,
	}, nil
}

// GenerateCardNumber returns a random card number such as MC-3F2A9C1D7B40.
func GenerateCardNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MC-" + strings.ToUpper(raw[:12])
}

func ToDataModel(c *Card) *cardDatamodel.MembershipCard {
	return &cardDatamodel.MembershipCard{
		ID:                c.ID,
		CardNumber:        c.CardNumber,
		BrandID:           c.BrandID,
		StoreID:           c.StoreID,
		MemberID:          c.MemberID,
		BillingType:       string(c.BillingType),
		TotalSessions:     c.TotalSessions,
		RemainingSessions: c.RemainingSessions,
		ValidityDays:      c.ValidityDays,
		IssueDate:         c.IssueDate,
		ActivationDate:    c.ActivationDate,
		ExpiryDate:        c.ExpiryDate,
		FrozenAt:          c.FrozenAt,
		RefundedAt:        c.RefundedAt,
		Status:            string(c.Status),
		Price:             c.Price,
		Version:           c.Version,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func FromDataModel(m *cardDatamodel.MembershipCard) *Card {
	return &Card{
		ID:                m.ID,
		CardNumber:        m.CardNumber,
		BrandID:           m.BrandID,
		StoreID:           m.StoreID,
		MemberID:          m.MemberID,
		BillingType:       BillingType(m.BillingType),
		TotalSessions:     m.TotalSessions,
		RemainingSessions: m.RemainingSessions,
		ValidityDays:      m.ValidityDays,
		IssueDate:         m.IssueDate,
		ActivationDate:    m.ActivationDate,
		ExpiryDate:        m.ExpiryDate,
		FrozenAt:          m.FrozenAt,
		RefundedAt:        m.RefundedAt,
		Status:            Status(m.Status),
		Price:             m.Price,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
