package card

import (
	"time"

	"github.com/shopspring/decimal"
)

type MembershipCard struct {
	ID                int64           `gorm:"primaryKey"`
	CardNumber        string          `gorm:"column:card_number;uniqueIndex;not null"`
	BrandID           int64           `gorm:"column:brand_id;not null;index"`
	StoreID           int64           `gorm:"column:store_id;not null;index"`
	MemberID          int64           `gorm:"column:member_id;not null;index"`
	BillingType       string          `gorm:"column:billing_type;not null"`
	TotalSessions     int             `gorm:"column:total_sessions;not null;default:0"`
	RemainingSessions int             `gorm:"column:remaining_sessions;not null;default:0"`
	ValidityDays      *int            `gorm:"column:validity_days"`
	IssueDate         time.Time       `gorm:"column:issue_date;not null"`
	ActivationDate    *time.Time      `gorm:"column:activation_date"`
	ExpiryDate        *time.Time      `gorm:"column:expiry_date;index"`
	FrozenAt          *time.Time      `gorm:"column:frozen_at"`
	RefundedAt        *time.Time      `gorm:"column:refunded_at"`
	Status            string          `gorm:"column:status;not null;index"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Version           int64           `gorm:"column:version;not null;default:1"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (MembershipCard) TableName() string { return "membership_cards" }
