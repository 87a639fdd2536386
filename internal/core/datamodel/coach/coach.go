package coach

import "time"

type Coach struct {
	ID             int64     `gorm:"primaryKey"`
	BrandID        int64     `gorm:"column:brand_id;not null;uniqueIndex:idx_coaches_brand_employee"`
	StoreID        int64     `gorm:"column:store_id;not null;index"`
	UserID         *int64    `gorm:"column:user_id"`
	EmployeeNumber string    `gorm:"column:employee_number;not null;uniqueIndex:idx_coaches_brand_employee"`
	Name           string    `gorm:"column:name;not null"`
	Specialties    []string  `gorm:"column:specialties;type:text;serializer:json"`
	Status         string    `gorm:"column:status;not null;default:active"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Coach) TableName() string { return "coaches" }
