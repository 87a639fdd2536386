package billing

import (
	"context"
	"log/slog"
	"time"

	billingDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/billing"
	"github.com/shopspring/decimal"
)

const KindCardRefund = "card_refund"

// Entry is one compensating movement in the billing ledger. Amounts leaving
// the business are negative.
type Entry struct {
	EventID    string
	Kind       string
	CardID     int64
	CardNumber string
	MemberID   int64
	BrandID    int64
	StoreID    int64
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// Ledger records entries. Recording the same EventID twice is a no-op.
type Ledger interface {
	Record(ctx context.Context, e Entry) error
}

// LogLedger writes entries to the log only. It is used when no billing store
// is configured.
type LogLedger struct {
	logger *slog.Logger
}

func NewLogLedger(logger *slog.Logger) *LogLedger {
	return &LogLedger{logger: logger}
}

func (l *LogLedger) Record(ctx context.Context, e Entry) error {
	l.logger.InfoContext(ctx, "billing ledger entry",
		"event_id", e.EventID,
		"kind", e.Kind,
		"card_id", e.CardID,
		"member_id", e.MemberID,
		"amount", e.Amount.StringFixed(2))
	return nil
}

func ToDataModel(e Entry) *billingDatamodel.LedgerEntry {
	return &billingDatamodel.LedgerEntry{
		EventID:    e.EventID,
		Kind:       e.Kind,
		CardID:     e.CardID,
		CardNumber: e.CardNumber,
		MemberID:   e.MemberID,
		BrandID:    e.BrandID,
		StoreID:    e.StoreID,
		Amount:     e.Amount,
		OccurredAt: e.OccurredAt,
	}
}
