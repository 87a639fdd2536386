package card

import (
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/shopspring/decimal"
)

type CreateCardDTO struct {
	MemberID      int64           `json:"member_id" validate:"required,gt=0"`
	CardNumber    string          `json:"card_number" validate:"omitempty,max=64"`
	BillingType   string          `json:"billing_type" validate:"required,oneof=times period unlimited"`
	TotalSessions int             `json:"total_sessions" validate:"gte=0"`
	ValidityDays  *int            `json:"validity_days" validate:"omitempty,gte=1"`
	IssueDate     *time.Time      `json:"issue_date"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	Price         decimal.Decimal `json:"price"`
}

type CardsResponse struct {
	Cards []*Card `json:"cards"`
}

// Eligibility is the answer to "can this card pay for a visit now".
type Eligibility struct {
	CardID            int64              `json:"card_id"`
	Eligible          bool               `json:"eligible"`
	Reason            internal.ErrorCode `json:"reason,omitempty"`
	Message           string             `json:"message,omitempty"`
	Status            Status             `json:"status"`
	RemainingSessions int                `json:"remaining_sessions"`
	ExpiryDate        *time.Time         `json:"expiry_date,omitempty"`
}

func NewEligibility(c *Card, err error) *Eligibility {
	e := &Eligibility{
		CardID:            c.ID,
		Eligible:          err == nil,
		Status:            c.Status,
		RemainingSessions: c.RemainingSessions,
		ExpiryDate:        c.ExpiryDate,
	}
	if appErr, ok := internal.IsAppError(err); ok {
		e.Reason = appErr.Code
		e.Message = appErr.Message
	}
	return e
}
