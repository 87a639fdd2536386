package checkin

type CreateCheckInDTO struct {
	MemberID         int64  `json:"member_id" validate:"required,gt=0"`
	BookingID        *int64 `json:"booking_id" validate:"omitempty,gt=0"`
	PaymentMethod    string `json:"payment_method" validate:"required_without=BookingID,omitempty,oneof=membership_card cash"`
	MembershipCardID *int64 `json:"membership_card_id" validate:"required_if=PaymentMethod membership_card"`
}

type CheckInsResponse struct {
	CheckIns []*CheckIn `json:"check_ins"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
