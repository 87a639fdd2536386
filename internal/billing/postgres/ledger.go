package postgres

import (
	"context"

	"github.com/frahmantamala/gym-management/internal/billing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Record inserts e once per event id; redelivered events are ignored.
func (r *LedgerRepository) Record(ctx context.Context, e billing.Entry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(billing.ToDataModel(e)).Error
}
