package checkin

import "time"

type CheckIn struct {
	ID               int64     `gorm:"primaryKey"`
	BrandID          int64     `gorm:"column:brand_id;not null;index"`
	StoreID          int64     `gorm:"column:store_id;not null;index"`
	MemberID         int64     `gorm:"column:member_id;not null;index"`
	BookingID        *int64    `gorm:"column:booking_id"`
	PaymentMethod    string    `gorm:"column:payment_method;not null"`
	MembershipCardID *int64    `gorm:"column:membership_card_id"`
	CheckedInAt      time.Time `gorm:"column:checked_in_at;not null"`
	CreatedBy        int64     `gorm:"column:created_by;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CheckIn) TableName() string { return "check_ins" }
