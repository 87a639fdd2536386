package member

import "time"

type Member struct {
	ID        int64     `gorm:"primaryKey"`
	BrandID   int64     `gorm:"column:brand_id;not null;index"`
	StoreID   int64     `gorm:"column:store_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone"`
	Email     string    `gorm:"column:email"`
	Status    string    `gorm:"column:status;not null;default:active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string { return "members" }
