package member

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal/auth"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*Member, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*Member, error) {
	scope := auth.ResolveScopeFilter(caller, auth.ResourceMember)
	members, err := s.repo.List(ctx, scope, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list members", "error", err, "scope", scope.Kind)
		return nil, err
	}
	return members, nil
}

// Get returns ErrMemberNotFound for unknown ids and ErrForbidden for members
// outside the caller's scope.
func (s *Service) Get(ctx context.Context, caller *auth.Caller, id int64) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureInScope(caller, auth.ResourceMember, m.TenantRef()); err != nil {
		s.logger.WarnContext(ctx, "member outside caller scope", "member_id", id, "user_id", caller.UserID)
		return nil, err
	}
	return m, nil
}
