package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/middlewares"
	"delivery-service/internal/repository"
	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var orderings = map[string]bool{
	"order_date": true, "-order_date": true,
	"total_price": true, "-total_price": true,
}

var staff = []domain.Role{domain.RoleAdmin, domain.RoleRestaurantService, domain.RoleCourier}

type Handler struct {
	orders       *services.OrderService
	menu         *services.MenuService
	restaurants  *services.RestaurantService
	couriers     *services.CourierService
	users        *services.UserService
	stats        *services.StatsService
	attentionAge time.Duration
}

type Services struct {
	Orders      *services.OrderService
	Menu        *services.MenuService
	Restaurants *services.RestaurantService
	Couriers    *services.CourierService
	Users       *services.UserService
	Stats       *services.StatsService
}

func NewHandler(s Services, attentionAge time.Duration) *Handler {
	return &Handler{
		orders:       s.Orders,
		menu:         s.Menu,
		restaurants:  s.Restaurants,
		couriers:     s.Couriers,
		users:        s.Users,
		stats:        s.Stats,
		attentionAge: attentionAge,
	}
}

// RegisterRoutes mounts the API under /api/v1. auth must place a
// domain.Actor on the context.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	public := r.Group("/api/v1")
	public.POST("/register", h.Register)

	api := r.Group("/api/v1", auth)
	admin := middlewares.RequireRole(domain.RoleAdmin)
	restaurantStaff := middlewares.RequireRole(domain.RoleAdmin, domain.RoleRestaurantService)
	anyStaff := middlewares.RequireRole(staff...)

	api.GET("/restaurants", h.ListRestaurants)
	api.GET("/restaurants/by-cuisine-type", h.RestaurantsByCuisine)
	api.GET("/restaurants/:id", h.GetRestaurant)
	api.POST("/restaurants", restaurantStaff, h.CreateRestaurant)
	api.PUT("/restaurants/:id", restaurantStaff, h.UpdateRestaurant)
	api.DELETE("/restaurants/:id", admin, h.DeleteRestaurant)
	api.POST("/restaurants/:id/cuisines", restaurantStaff, h.AttachCuisine)

	api.GET("/cuisine-types", h.ListCuisines)
	api.POST("/cuisine-types", admin, h.CreateCuisine)

	api.GET("/menu-items", h.ListMenu)
	api.GET("/menu-items/:id", h.GetMenuItem)
	api.POST("/menu-items", restaurantStaff, h.CreateMenuItem)
	api.PUT("/menu-items/:id", restaurantStaff, h.UpdateMenuItem)
	api.DELETE("/menu-items/:id", restaurantStaff, h.DeleteMenuItem)

	api.GET("/orders", h.ListOrders)
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders/attention", anyStaff, h.AttentionOrders)
	api.POST("/orders/sweep", admin, h.BulkTransition)
	api.GET("/orders/:id", h.GetOrder)
	api.DELETE("/orders/:id", admin, h.DeleteOrder)
	api.PATCH("/orders/:id/status", h.ChangeStatus)
	api.GET("/orders/:id/history", h.OrderHistory)
	api.POST("/orders/:id/items", h.AddItem)
	api.GET("/order-items/by-order", h.OrderItemsByOrder)
	api.PATCH("/order-items/:id", h.UpdateItemQuantity)
	api.DELETE("/order-items/:id", h.RemoveItem)

	api.GET("/couriers", anyStaff, h.ListCouriers)
	api.GET("/couriers/filtered", anyStaff, h.FilterCouriers)
	api.GET("/couriers/:id", anyStaff, h.GetCourier)
	api.POST("/couriers", admin, h.CreateCourier)

	api.GET("/deliveries", anyStaff, h.ListDeliveries)
	api.GET("/deliveries/by-status", anyStaff, h.DeliveriesByStatus)
	api.POST("/deliveries/change-status", anyStaff, h.ChangeDeliveriesStatus)
	api.GET("/deliveries/:id", anyStaff, h.GetDelivery)
	api.POST("/deliveries", anyStaff, h.CreateDelivery)
	api.PATCH("/deliveries/:id", anyStaff, h.UpdateDelivery)

	api.POST("/users", admin, h.CreateUser)
	api.GET("/users/me", h.Me)
	api.PUT("/users/me", h.UpdateMe)
	api.GET("/users/clients", anyStaff, h.ListClients)
	api.GET("/users/couriers", anyStaff, h.ListCourierUsers)
	api.GET("/users/search", anyStaff, h.SearchUsers)
	api.GET("/users/:id", h.GetUser)
	api.DELETE("/users/:id", admin, h.DeleteUser)

	api.GET("/stats", anyStaff, h.Stats)
}

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderClosed),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middlewares.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
	}
	return a, ok
}

func pageParams(c *gin.Context) repository.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return services.NormalizePage(number, size)
}

func writePage(c *gin.Context, page repository.Page, total int64, results any) {
	c.JSON(http.StatusOK, PageResponse{Count: total, Page: page.Number, PageSize: page.Size, Results: results})
}

func optionalDecimal(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		badRequest(c, key+" must be a number")
		return nil, false
	}
	return &d, true
}

func (h *Handler) Register(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Role = domain.RoleClient
	h.createUser(c, req)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.createUser(c, req)
}

func (h *Handler) createUser(c *gin.Context, req UserRequest) {
	u, err := h.users.Create(c.Request.Context(), &domain.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Role:      req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), a, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Stats(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	stats, err := h.stats.Dashboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
