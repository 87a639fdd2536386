package booking

import (
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/coach"
	bookingDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/booking"
)

type SessionType string

const (
	SessionPersonal SessionType = "personal"
	SessionGroup    SessionType = "group"
)

// Specialization is the coaching kind a session of this type requires.
func (t SessionType) Specialization() coach.Specialization {
	switch t {
	case SessionPersonal:
		return coach.SpecializationPersonal
	case SessionGroup:
		return coach.SpecializationGroup
	}
	return ""
}

type PaymentMethod string

const (
	PaymentMembershipCard PaymentMethod = "membership_card"
	PaymentCash           PaymentMethod = "cash"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Booking struct {
	ID               int64         `json:"id"`
	BrandID          int64         `json:"brand_id"`
	StoreID          int64         `json:"store_id"`
	MemberID         int64         `json:"member_id"`
	CoachID          *int64        `json:"coach_id,omitempty"`
	CourseID         *int64        `json:"course_id,omitempty"`
	SessionType      SessionType   `json:"session_type"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	MembershipCardID *int64        `json:"membership_card_id,omitempty"`
	Status           string        `json:"status"`
	ScheduledAt      time.Time     `json:"scheduled_at"`
	CreatedBy        int64         `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsCardPaid reports whether a membership card was charged for the booking.
func (b *Booking) IsCardPaid() bool {
	return b.PaymentMethod == PaymentMembershipCard && b.MembershipCardID != nil
}

func (b *Booking) TenantRef() auth.TenantRef {
	return auth.StoreRef(b.BrandID, b.StoreID)
}

func ToDataModel(b *Booking) *bookingDatamodel.Booking {
	return &bookingDatamodel.Booking{
		ID:               b.ID,
		BrandID:          b.BrandID,
		StoreID:          b.StoreID,
		MemberID:         b.MemberID,
		CoachID:          b.CoachID,
		CourseID:         b.CourseID,
		SessionType:      string(b.SessionType),
		PaymentMethod:    string(b.PaymentMethod),
		MembershipCardID: b.MembershipCardID,
		Status:           b.Status,
		ScheduledAt:      b.ScheduledAt,
		CreatedBy:        b.CreatedBy,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func FromDataModel(row *bookingDatamodel.Booking) *Booking {
	return &Booking{
		ID:               row.ID,
		BrandID:          row.BrandID,
		StoreID:          row.StoreID,
		MemberID:         row.MemberID,
		CoachID:          row.CoachID,
		CourseID:         row.CourseID,
		SessionType:      SessionType(row.SessionType),
		PaymentMethod:    PaymentMethod(row.PaymentMethod),
		MembershipCardID: row.MembershipCardID,
		Status:           row.Status,
		ScheduledAt:      row.ScheduledAt,
		CreatedBy:        row.CreatedBy,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
