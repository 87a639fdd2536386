package coach

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal/auth"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*Coach, error)
	GetByEmployeeNumber(ctx context.Context, brandID int64, employeeNumber string) (*Coach, error)
	List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*Coach, error)
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

func (s *Service) List(ctx context.Context, caller *auth.Caller, limit, offset int) ([]*Coach, error) {
	scope := auth.ResolveScopeFilter(caller, auth.ResourceCoach)
	coaches, err := s.repo.List(ctx, scope, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list coaches", "error", err, "scope", scope.Kind)
		return nil, err
	}
	return coaches, nil
}

// Get returns the coach when it exists and is inside the caller's scope.
func (s *Service) Get(ctx context.Context, caller *auth.Caller, id int64) (*Coach, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureInScope(caller, auth.ResourceCoach, c.TenantRef()); err != nil {
		s.logger.WarnContext(ctx, "coach outside caller scope", "coach_id", id, "user_id", caller.UserID)
		return nil, err
	}
	return c, nil
}

func (s *Service) FindByEmployeeNumber(ctx context.Context, brandID int64, employeeNumber string) (*Coach, error) {
	return s.repo.GetByEmployeeNumber(ctx, brandID, employeeNumber)
}
