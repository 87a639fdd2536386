package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/member"
	"github.com/frahmantamala/gym-management/internal/member"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) member.RepositoryAPI {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	var row memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrMemberNotFound
		}
		return nil, err
	}
	return member.FromDataModel(&row), nil
}

func (r *MemberRepository) List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*member.Member, error) {
	var rows []*memberDatamodel.Member
	err := scope.Apply(r.db.WithContext(ctx).Model(&memberDatamodel.Member{})).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]*member.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, member.FromDataModel(row))
	}
	return members, nil
}
