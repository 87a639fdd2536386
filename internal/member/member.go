package member

import (
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Member struct {
	ID        int64     `json:"id"`
	BrandID   int64     `json:"brand_id"`
	StoreID   int64     `json:"store_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

func (m *Member) TenantRef() auth.TenantRef {
	return auth.StoreRef(m.BrandID, m.StoreID)
}

func ToDataModel(m *Member) *memberDatamodel.Member {
	return &memberDatamodel.Member{
		ID:        m.ID,
		BrandID:   m.BrandID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromDataModel(m *memberDatamodel.Member) *Member {
	return &Member{
		ID:        m.ID,
		BrandID:   m.BrandID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
