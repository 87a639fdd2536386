package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/booking"
	bookingDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/booking"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) booking.RepositoryAPI {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) WithTx(tx *gorm.DB) booking.RepositoryAPI {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	row := booking.ToDataModel(b)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	b.ID = row.ID
	b.CreatedAt = row.CreatedAt
	b.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	var row bookingDatamodel.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBookingNotFound
		}
		return nil, err
	}
	return booking.FromDataModel(&row), nil
}

func (r *BookingRepository) List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*booking.Booking, error) {
	var rows []*bookingDatamodel.Booking
	err := scope.Apply(r.db.WithContext(ctx).Model(&bookingDatamodel.Booking{})).
		Order("scheduled_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *BookingRepository) ListByCoach(ctx context.Context, coachID int64, sessionType booking.SessionType, limit, offset int) ([]*booking.Booking, error) {
	var rows []*bookingDatamodel.Booking
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND session_type = ?", coachID, string(sessionType)).
		Order("scheduled_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func fromRows(rows []*bookingDatamodel.Booking) []*booking.Booking {
	bookings := make([]*booking.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, booking.FromDataModel(row))
	}
	return bookings
}
