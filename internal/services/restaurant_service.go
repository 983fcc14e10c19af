package services

import (
	"context"
	"strings"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps user supplied pagination to sane bounds.
func NormalizePage(number, size int) repository.Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return repository.Page{Number: number, Size: size}
}

type RestaurantInput struct {
	Name    string
	Address string
	Phone   string
}

type RestaurantService struct {
	restaurants repository.RestaurantRepository
	log         *logger.Logger
}

func NewRestaurantService(r repository.RestaurantRepository, log *logger.Logger) *RestaurantService {
	return &RestaurantService{restaurants: r, log: log.WithComponent("restaurant_service")}
}

func (s *RestaurantService) Create(ctx context.Context, in RestaurantInput) (*domain.Restaurant, error) {
	r := &domain.Restaurant{
		Name:    strings.TrimSpace(in.Name),
		Address: in.Address,
		Phone:   in.Phone,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.restaurants.Create(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("restaurant created", "restaurant_id", r.ID)
	return r, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint64) (*domain.Restaurant, error) {
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	return r, nil
}

func (s *RestaurantService) Update(ctx context.Context, id uint64, in RestaurantInput) (*domain.Restaurant, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Name = strings.TrimSpace(in.Name)
	r.Address = in.Address
	r.Phone = in.Phone
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.restaurants.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RestaurantService) Delete(ctx context.Context, id uint64) error {
	return s.restaurants.Delete(ctx, id)
}

func (s *RestaurantService) List(ctx context.Context, query string, page repository.Page) ([]domain.Restaurant, int64, error) {
	return s.restaurants.List(ctx, strings.TrimSpace(query), page)
}

func (s *RestaurantService) ListByCuisine(ctx context.Context, cuisine string, page repository.Page) ([]domain.Restaurant, int64, error) {
	cuisine = strings.TrimSpace(cuisine)
	if cuisine == "" {
		return nil, 0, domain.NewValidationError("cuisine_type", "cuisine_type is required")
	}
	return s.restaurants.ListByCuisine(ctx, cuisine, page)
}

func (s *RestaurantService) CreateCuisine(ctx context.Context, name string) (*domain.CuisineType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "cuisine name must not be empty")
	}
	c := &domain.CuisineType{Name: name}
	if err := s.restaurants.CreateCuisine(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *RestaurantService) ListCuisines(ctx context.Context) ([]domain.CuisineType, error) {
	return s.restaurants.ListCuisines(ctx)
}

// AttachCuisine links a cuisine type to a restaurant with the given
// popularity, replacing the popularity of an existing link.
func (s *RestaurantService) AttachCuisine(ctx context.Context, restaurantID, cuisineID uint64, popularity uint) error {
	if _, err := s.Get(ctx, restaurantID); err != nil {
		return err
	}
	c, err := s.restaurants.FindCuisine(ctx, cuisineID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrCuisineNotFound
	}
	return s.restaurants.AttachCuisine(ctx, &domain.RestaurantCuisine{
		RestaurantID:  restaurantID,
		CuisineTypeID: cuisineID,
		Popularity:    popularity,
	})
}
