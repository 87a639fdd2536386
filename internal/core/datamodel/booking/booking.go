package booking

import "time"

type Booking struct {
	ID               int64     `gorm:"primaryKey"`
	BrandID          int64     `gorm:"column:brand_id;not null;index"`
	StoreID          int64     `gorm:"column:store_id;not null;index"`
	MemberID         int64     `gorm:"column:member_id;not null;index"`
	CoachID          *int64    `gorm:"column:coach_id;index"`
	CourseID         *int64    `gorm:"column:course_id"`
	SessionType      string    `gorm:"column:session_type;not null"`
	PaymentMethod    string    `gorm:"column:payment_method;not null"`
	MembershipCardID *int64    `gorm:"column:membership_card_id"`
	Status           string    `gorm:"column:status;not null"`
	ScheduledAt      time.Time `gorm:"column:scheduled_at;not null"`
	CreatedBy        int64     `gorm:"column:created_by;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Booking) TableName() string { return "bookings" }
