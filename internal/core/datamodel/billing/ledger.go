package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntry struct {
	ID         int64           `gorm:"primaryKey"`
	EventID    string          `gorm:"column:event_id;not null;uniqueIndex"`
	Kind       string          `gorm:"column:kind;not null"`
	CardID     int64           `gorm:"column:card_id;not null;index"`
	CardNumber string          `gorm:"column:card_number;not null"`
	MemberID   int64           `gorm:"column:member_id;not null"`
	BrandID    int64           `gorm:"column:brand_id;not null"`
	StoreID    int64           `gorm:"column:store_id;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	OccurredAt time.Time       `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "billing_ledger_entries" }
