package services

import (
	"context"
	"strings"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"
)

type UserService struct {
	users repository.UserRepository
	log   *logger.Logger
}

func NewUserService(u repository.UserRepository, log *logger.Logger) *UserService {
	return &UserService{users: u, log: log.WithComponent("user_service")}
}

func (s *UserService) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.Role == "" {
		u.Role = domain.RoleClient
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Get returns any user to staff, and only themselves to everyone else.
func (s *UserService) Get(ctx context.Context, actor domain.Actor, id uint64) (*domain.User, error) {
	if !actor.IsStaff() && actor.UserID != id {
		return nil, domain.ErrForbidden
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// UserUpdate carries a partial profile change; nil fields are kept.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
}

func (s *UserService) UpdateSelf(ctx context.Context, actor domain.Actor, in UserUpdate) (*domain.User, error) {
	u, err := s.Get(ctx, actor, actor.UserID)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Email, in.Email)
	set(&u.Phone, in.Phone)
	set(&u.Address, in.Address)

	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id uint64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", "user_id", id, "by", actor.UserID)
	return nil
}

func (s *UserService) ListByRole(ctx context.Context, actor domain.Actor, role domain.Role, page repository.Page) ([]domain.User, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, domain.ErrForbidden
	}
	if !role.Valid() {
		return nil, 0, domain.NewValidationError("role", "unknown role "+string(role))
	}
	return s.users.ListByRole(ctx, role, page)
}

// Search matches query against first and last names.
func (s *UserService) Search(ctx context.Context, actor domain.Actor, query string, page repository.Page) ([]domain.User, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, domain.ErrForbidden
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, domain.NewValidationError("search", "search query is required")
	}
	return s.users.Search(ctx, query, page)
}

type StatsService struct {
	stats repository.StatsRepository
}

func NewStatsService(r repository.StatsRepository) *StatsService {
	return &StatsService{stats: r}
}

func (s *StatsService) Dashboard(ctx context.Context, limit int) (*repository.Stats, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = 5
	}
	return s.stats.Dashboard(ctx, limit)
}
