package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/card"
	cardDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/card"
	"gorm.io/gorm"
)

// CardRepository implements card.RepositoryAPI using GORM.
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) card.RepositoryAPI {
	return &CardRepository{db: db}
}

func (r *CardRepository) WithTx(tx *gorm.DB) card.RepositoryAPI {
	return &CardRepository{db: tx}
}

func (r *CardRepository) Create(ctx context.Context, c *card.Card) error {
	row := card.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id int64) (*card.Card, error) {
	var row cardDatamodel.MembershipCard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCardNotFound
		}
		return nil, err
	}
	return card.FromDataModel(&row), nil
}

func (r *CardRepository) ListByMember(ctx context.Context, memberID int64, scope auth.ScopeFilter) ([]*card.Card, error) {
	var rows []*cardDatamodel.MembershipCard
	err := scope.Apply(r.db.WithContext(ctx).Model(&cardDatamodel.MembershipCard{})).
		Where("member_id = ?", memberID).
		Order("issue_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	cards := make([]*card.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, card.FromDataModel(row))
	}
	return cards, nil
}

// DecrementSession is a single conditional UPDATE, so concurrent callers
// cannot both take the last session. Reaching zero also expires the card.
func (r *CardRepository) DecrementSession(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&cardDatamodel.MembershipCard{}).
		Where("id = ? AND status = ? AND billing_type = ? AND remaining_sessions > 0",
			id, string(card.StatusActive), string(card.BillingTimes)).
		Updates(map[string]interface{}{
			"remaining_sessions": gorm.Expr("remaining_sessions - 1"),
			"status":             gorm.Expr("CASE WHEN remaining_sessions <= 1 THEN ? ELSE status END", string(card.StatusExpired)),
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CardRepository) UpdateState(ctx context.Context, c *card.Card) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&cardDatamodel.MembershipCard{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"status":             string(c.Status),
			"remaining_sessions": c.RemainingSessions,
			"activation_date":    c.ActivationDate,
			"expiry_date":        c.ExpiryDate,
			"frozen_at":          c.FrozenAt,
			"refunded_at":        c.RefundedAt,
			"version":            c.Version + 1,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	c.Version++
	return true, nil
}

func (r *CardRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]*card.Card, error) {
	var rows []*cardDatamodel.MembershipCard
	err := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", string(card.StatusActive), now).
		Order("expiry_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	cards := make([]*card.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, card.FromDataModel(row))
	}
	return cards, nil
}
