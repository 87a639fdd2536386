package checkin

import (
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
	checkinDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/checkin"
)

const (
	PaymentMembershipCard = "membership_card"
	PaymentCash           = "cash"
	// PaymentBooking marks a visit already paid for by its booking.
	PaymentBooking = "booking"
)

type CheckIn struct {
	ID               int64     `json:"id"`
	BrandID          int64     `json:"brand_id"`
	StoreID          int64     `json:"store_id"`
	MemberID         int64     `json:"member_id"`
	BookingID        *int64    `json:"booking_id,omitempty"`
	PaymentMethod    string    `json:"payment_method"`
	MembershipCardID *int64    `json:"membership_card_id,omitempty"`
	CheckedInAt      time.Time `json:"checked_in_at"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

func (c *CheckIn) TenantRef() auth.TenantRef {
	return auth.StoreRef(c.BrandID, c.StoreID)
}

func ToDataModel(c *CheckIn) *checkinDatamodel.CheckIn {
	return &checkinDatamodel.CheckIn{
		ID:               c.ID,
		BrandID:          c.BrandID,
		StoreID:          c.StoreID,
		MemberID:         c.MemberID,
		BookingID:        c.BookingID,
		PaymentMethod:    c.PaymentMethod,
		MembershipCardID: c.MembershipCardID,
		CheckedInAt:      c.CheckedInAt,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
	}
}

func FromDataModel(row *checkinDatamodel.CheckIn) *CheckIn {
	return &CheckIn{
		ID:               row.ID,
		BrandID:          row.BrandID,
		StoreID:          row.StoreID,
		MemberID:         row.MemberID,
		BookingID:        row.BookingID,
		PaymentMethod:    row.PaymentMethod,
		MembershipCardID: row.MembershipCardID,
		CheckedInAt:      row.CheckedInAt,
		CreatedBy:        row.CreatedBy,
		CreatedAt:        row.CreatedAt,
	}
}
