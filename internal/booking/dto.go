package booking

import "time"

type CreateBookingDTO struct {
	MemberID         int64     `json:"member_id" validate:"required,gt=0"`
	CoachID          *int64    `json:"coach_id" validate:"omitempty,gt=0"`
	CourseID         *int64    `json:"course_id" validate:"omitempty,gt=0"`
	SessionType      string    `json:"session_type" validate:"required,oneof=personal group"`
	PaymentMethod    string    `json:"payment_method" validate:"required,oneof=membership_card cash"`
	MembershipCardID *int64    `json:"membership_card_id" validate:"required_if=PaymentMethod membership_card"`
	ScheduledAt      time.Time `json:"scheduled_at" validate:"required"`
}

type BookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
