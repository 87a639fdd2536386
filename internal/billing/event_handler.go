package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal/core/events"
)

type EventHandler struct {
	ledger Ledger
	logger *slog.Logger
}

func NewEventHandler(ledger Ledger, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		ledger: ledger,
		logger: logger,
	}
}

// HandleCardRefunded books the refund of a card's price as a negative entry.
func (h *EventHandler) HandleCardRefunded(ctx context.Context, event events.Event) error {
	cardEvent, ok := event.(*events.CardEvent)
	if !ok {
		h.logger.Error("invalid event type for card refunded handler", "event_type", event.EventType())
		return fmt.Errorf("expected CardEvent, got %T", event)
	}

	entry := Entry{
		EventID:    cardEvent.EventID(),
		Kind:       KindCardRefund,
		CardID:     cardEvent.CardID,
		CardNumber: cardEvent.CardNumber,
		MemberID:   cardEvent.MemberID,
		BrandID:    cardEvent.BrandID,
		StoreID:    cardEvent.StoreID,
		Amount:     cardEvent.Amount.Neg(),
		OccurredAt: cardEvent.OccurredAt(),
	}

	if err := h.ledger.Record(ctx, entry); err != nil {
		h.logger.Error("failed to record card refund",
			"error", err,
			"card_id", cardEvent.CardID,
			"event_id", cardEvent.EventID())
		return fmt.Errorf("recording refund for card %d: %w", cardEvent.CardID, err)
	}

	h.logger.Info("card refund recorded",
		"card_id", cardEvent.CardID,
		"member_id", cardEvent.MemberID,
		"amount", cardEvent.Amount.StringFixed(2),
		"event_id", cardEvent.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeCardRefunded, h.HandleCardRefunded)

	h.logger.Info("billing event handlers registered",
		"handlers", []string{events.EventTypeCardRefunded})
}
