package repository

import (
	"context"
	"time"

	"delivery-service/internal/domain"

	"github.com/shopspring/decimal"
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

type OrderFilter struct {
	UserID         uint64
	RestaurantName string
	Status         domain.OrderStatus
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	// Ordering is a column name, optionally prefixed with "-" for descending.
	Ordering string
	Page     Page
}

// StaleFilter selects orders created before Before whose status is in Statuses.
type StaleFilter struct {
	Before   time.Time
	Statuses []domain.OrderStatus
}

type StatusUpdate struct {
	OrderID uint64
	From    domain.OrderStatus
	To      domain.OrderStatus
	ActorID *uint64
	Reason  string
}

// Transactor runs fn in one database transaction. Repositories called with
// the ctx passed to fn join that transaction; fn's error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	Transactor

	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error)
	Delete(ctx context.Context, id uint64) error
	// FindAttention returns orders that are preparing, or older than olderThan and still open.
	FindAttention(ctx context.Context, olderThan time.Time) ([]domain.Order, error)

	UpdateStatus(ctx context.Context, u StatusUpdate) error
	BulkTransition(ctx context.Context, f StaleFilter, to domain.OrderStatus, reason string) ([]domain.OrderStatusChange, error)
	StatusHistory(ctx context.Context, orderID uint64) ([]domain.OrderStatusChange, error)

	FindItem(ctx context.Context, itemID uint64) (*domain.OrderItem, error)
	AddItem(ctx context.Context, item *domain.OrderItem) (*domain.Order, error)
	UpdateItemQuantity(ctx context.Context, itemID uint64, quantity int) (*domain.Order, error)
	RemoveItem(ctx context.Context, itemID uint64) (*domain.Order, error)
	RecomputeTotals(ctx context.Context, orderIDs []uint64) error
	OpenOrderIDsByMenuItem(ctx context.Context, menuItemID uint64) ([]uint64, error)
}

type MenuRepository interface {
	Create(ctx context.Context, item *domain.MenuItem) error
	Update(ctx context.Context, item *domain.MenuItem) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*domain.MenuItem, error)
	// FindForUpdate locks the row until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, id uint64) (*domain.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.MenuItem, error)
}

type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) error
	Update(ctx context.Context, r *domain.Restaurant) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error)
	List(ctx context.Context, query string, page Page) ([]domain.Restaurant, int64, error)
	ListByCuisine(ctx context.Context, cuisine string, page Page) ([]domain.Restaurant, int64, error)

	CreateCuisine(ctx context.Context, c *domain.CuisineType) error
	ListCuisines(ctx context.Context) ([]domain.CuisineType, error)
	FindCuisine(ctx context.Context, id uint64) (*domain.CuisineType, error)
	AttachCuisine(ctx context.Context, rc *domain.RestaurantCuisine) error
}

type CourierFilter struct {
	VehicleTypes            []domain.VehicleType
	FirstNameStartsWith     string
	ExcludeLastNameContains string
	Page                    Page
}

type CourierRepository interface {
	Create(ctx context.Context, c *domain.Courier) error
	FindByID(ctx context.Context, id uint64) (*domain.Courier, error)
	List(ctx context.Context, f CourierFilter) ([]domain.Courier, int64, error)
}

type DeliveryFilter struct {
	Status domain.DeliveryStatus
	Page   Page
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	Update(ctx context.Context, d *domain.Delivery) error
	FindByID(ctx context.Context, id uint64) (*domain.Delivery, error)
	List(ctx context.Context, f DeliveryFilter) ([]domain.Delivery, int64, error)
	// SetStatusOfUndelivered moves every delivery that is not yet delivered
	// to status and returns the rows it changed.
	SetStatusOfUndelivered(ctx context.Context, status domain.DeliveryStatus) ([]domain.Delivery, error)
	// DueBetween returns in-progress deliveries scheduled in [from, to), with
	// order, user, restaurant and courier loaded.
	DueBetween(ctx context.Context, from, to time.Time) ([]domain.Delivery, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role, page Page) ([]domain.User, int64, error)
	// Search matches query against first and last names, case-insensitively.
	Search(ctx context.Context, query string, page Page) ([]domain.User, int64, error)
}

type ActivityRepository interface {
	SaveBatch(ctx context.Context, activities []domain.UserActivity) error
}

type RestaurantRank struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	OrdersCount    int64  `json:"ordersCount"`
	MenuItemsCount int64  `json:"menuItemsCount"`
}

type DishRank struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	OrdersCount int64           `json:"ordersCount"`
}

type Stats struct {
	Restaurants    int64            `json:"restaurants"`
	Dishes         int64            `json:"dishes"`
	Orders         int64            `json:"orders"`
	TopRestaurants []RestaurantRank `json:"topRestaurants"`
	PopularDishes  []DishRank       `json:"popularDishes"`
	CurrentOrders  []domain.Order   `json:"currentOrders"`
}

type StatsRepository interface {
	Dashboard(ctx context.Context, limit int) (*Stats, error)
}
