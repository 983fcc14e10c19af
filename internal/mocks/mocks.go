package mocks

import (
	"context"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
	Transactions int
}

// WithinTx runs fn directly and counts the call in Transactions.
func (m *MockOrderRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Transactions++
	return fn(ctx)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) FindAttention(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, u repository.StatusUpdate) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockOrderRepository) BulkTransition(ctx context.Context, f repository.StaleFilter, to domain.OrderStatus, reason string) ([]domain.OrderStatusChange, error) {
	args := m.Called(ctx, f, to, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderStatusChange), args.Error(1)
}

func (m *MockOrderRepository) StatusHistory(ctx context.Context, orderID uint64) ([]domain.OrderStatusChange, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderStatusChange), args.Error(1)
}

func (m *MockOrderRepository) FindItem(ctx context.Context, itemID uint64) (*domain.OrderItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) AddItem(ctx context.Context, item *domain.OrderItem) (*domain.Order, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateItemQuantity(ctx context.Context, itemID uint64, quantity int) (*domain.Order, error) {
	args := m.Called(ctx, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) RemoveItem(ctx context.Context, itemID uint64) (*domain.Order, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) RecomputeTotals(ctx context.Context, orderIDs []uint64) error {
	args := m.Called(ctx, orderIDs)
	return args.Error(0)
}

func (m *MockOrderRepository) OpenOrderIDsByMenuItem(ctx context.Context, menuItemID uint64) ([]uint64, error) {
	args := m.Called(ctx, menuItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

type MockMenuRepository struct {
	mock.Mock
}

func (m *MockMenuRepository) Create(ctx context.Context, item *domain.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMenuRepository) Update(ctx context.Context, item *domain.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMenuRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMenuRepository) FindByID(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *MockMenuRepository) FindForUpdate(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *MockMenuRepository) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.MenuItem, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MenuItem), args.Error(1)
}

type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) Create(ctx context.Context, r *domain.Restaurant) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRestaurantRepository) Update(ctx context.Context, r *domain.Restaurant) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRestaurantRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRestaurantRepository) FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) List(ctx context.Context, query string, page repository.Page) ([]domain.Restaurant, int64, error) {
	args := m.Called(ctx, query, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Restaurant), args.Get(1).(int64), args.Error(2)
}

func (m *MockRestaurantRepository) ListByCuisine(ctx context.Context, cuisine string, page repository.Page) ([]domain.Restaurant, int64, error) {
	args := m.Called(ctx, cuisine, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Restaurant), args.Get(1).(int64), args.Error(2)
}

func (m *MockRestaurantRepository) CreateCuisine(ctx context.Context, c *domain.CuisineType) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRestaurantRepository) ListCuisines(ctx context.Context) ([]domain.CuisineType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CuisineType), args.Error(1)
}

func (m *MockRestaurantRepository) FindCuisine(ctx context.Context, id uint64) (*domain.CuisineType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CuisineType), args.Error(1)
}

func (m *MockRestaurantRepository) AttachCuisine(ctx context.Context, rc *domain.RestaurantCuisine) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

type MockCourierRepository struct {
	mock.Mock
}

func (m *MockCourierRepository) Create(ctx context.Context, c *domain.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) FindByID(ctx context.Context, id uint64) (*domain.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Courier), args.Error(1)
}

func (m *MockCourierRepository) List(ctx context.Context, f repository.CourierFilter) ([]domain.Courier, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Courier), args.Get(1).(int64), args.Error(2)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *domain.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, id uint64) (*domain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) List(ctx context.Context, f repository.DeliveryFilter) ([]domain.Delivery, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Delivery), args.Get(1).(int64), args.Error(2)
}

func (m *MockDeliveryRepository) SetStatusOfUndelivered(ctx context.Context, status domain.DeliveryStatus) ([]domain.Delivery, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) DueBetween(ctx context.Context, from, to time.Time) ([]domain.Delivery, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Delivery), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role, page repository.Page) ([]domain.User, int64, error) {
	args := m.Called(ctx, role, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, page repository.Page) ([]domain.User, int64, error) {
	args := m.Called(ctx, query, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) SaveBatch(ctx context.Context, activities []domain.UserActivity) error {
	args := m.Called(ctx, activities)
	return args.Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Dashboard(ctx context.Context, limit int) (*repository.Stats, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Stats), args.Error(1)
}
