package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeCardActivated       = "card.activated"
	EventTypeCardSessionConsumed = "card.session_consumed"
	EventTypeCardExpired         = "card.expired"
	EventTypeCardFrozen          = "card.frozen"
	EventTypeCardUnfrozen        = "card.unfrozen"
	EventTypeCardRefunded        = "card.refunded"
)

// CardEvent reports one committed membership card transition.
type CardEvent struct {
	BaseEvent
	CardID            int64           `json:"card_id"`
	CardNumber        string          `json:"card_number"`
	MemberID          int64           `json:"member_id"`
	BrandID           int64           `json:"brand_id"`
	StoreID           int64           `json:"store_id"`
	RemainingSessions int             `json:"remaining_sessions"`
	Amount            decimal.Decimal `json:"amount"`
}

func NewCardEvent(eventType string, at time.Time, cardID int64, cardNumber string, memberID, brandID, storeID int64, remaining int, amount decimal.Decimal) *CardEvent {
	return &CardEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: at,
			Data: map[string]interface{}{
				"card_id":            cardID,
				"card_number":        cardNumber,
				"member_id":          memberID,
				"brand_id":           brandID,
				"store_id":           storeID,
				"remaining_sessions": remaining,
				"amount":             amount.StringFixed(2),
			},
		},
		CardID:            cardID,
		CardNumber:        cardNumber,
		MemberID:          memberID,
		BrandID:           brandID,
		StoreID:           storeID,
		RemainingSessions: remaining,
		Amount:            amount,
	}
}
