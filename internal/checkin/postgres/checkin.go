package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/checkin"
	checkinDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/checkin"
	"gorm.io/gorm"
)

type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) checkin.RepositoryAPI {
	return &CheckInRepository{db: db}
}

func (r *CheckInRepository) WithTx(tx *gorm.DB) checkin.RepositoryAPI {
	return &CheckInRepository{db: tx}
}

func (r *CheckInRepository) Create(ctx context.Context, c *checkin.CheckIn) error {
	row := checkin.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	return nil
}

func (r *CheckInRepository) GetByID(ctx context.Context, id int64) (*checkin.CheckIn, error) {
	var row checkinDatamodel.CheckIn
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCheckInNotFound
		}
		return nil, err
	}
	return checkin.FromDataModel(&row), nil
}

func (r *CheckInRepository) List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*checkin.CheckIn, error) {
	var rows []*checkinDatamodel.CheckIn
	err := scope.Apply(r.db.WithContext(ctx).Model(&checkinDatamodel.CheckIn{})).
		Order("checked_in_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*checkin.CheckIn, 0, len(rows))
	for _, row := range rows {
		out = append(out, checkin.FromDataModel(row))
	}
	return out, nil
}

func (r *CheckInRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&checkinDatamodel.CheckIn{}).
		Where("booking_id = ?", bookingID).
		Count(&n).Error
	return n > 0, err
}
