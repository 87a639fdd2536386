package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetRoles(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo     Repository
	resolver *auth.PermissionResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver *auth.PermissionResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// Profile loads the caller's account and reports the permissions and scope
// their token carries.
func (s *Service) Profile(ctx context.Context, caller *auth.Caller) (*Profile, error) {
	if caller == nil {
		return nil, internal.ErrUnauthenticated
	}

	u, err := s.repo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	roles, err := s.repo.GetRoles(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	u.Roles = roles

	scope := auth.ResolveScopeFilter(caller, auth.ResourceMember)
	return &Profile{
		User:        u,
		Scope:       ScopeView{Kind: scope.Kind, BrandID: scope.BrandID, StoreID: scope.StoreID},
		Permissions: s.permissions(caller.Roles),
	}, nil
}

func (s *Service) permissions(roles []auth.Role) map[string][]string {
	out := make(map[string][]string)
	for _, resource := range auth.Resources() {
		for _, action := range auth.Actions() {
			if s.resolver.CheckAny(roles, resource, action) == nil {
				out[resource.String()] = append(out[resource.String()], action.String())
			}
		}
	}
	return out
}
