package http

import (
	"net/http"
	"strconv"

	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListRestaurants(c *gin.Context) {
	page := pageParams(c)
	out, total, err := h.restaurants.List(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

func (h *Handler) RestaurantsByCuisine(c *gin.Context) {
	page := pageParams(c)
	out, total, err := h.restaurants.ListByCuisine(c.Request.Context(), c.Query("cuisine_type"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.restaurants.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.restaurants.Create(c.Request.Context(), services.RestaurantInput{Name: req.Name, Address: req.Address, Phone: req.Phone})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.restaurants.Update(c.Request.Context(), id, services.RestaurantInput{Name: req.Name, Address: req.Address, Phone: req.Phone})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.restaurants.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AttachCuisine(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AttachCuisineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.restaurants.AttachCuisine(c.Request.Context(), id, req.CuisineTypeID, req.Popularity); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCuisines(c *gin.Context) {
	out, err := h.restaurants.ListCuisines(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateCuisine(c *gin.Context) {
	var req CuisineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cuisine, err := h.restaurants.CreateCuisine(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cuisine)
}

func (h *Handler) ListMenu(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)
	if err != nil || restaurantID == 0 {
		badRequest(c, "restaurant_id is required")
		return
	}
	items, err := h.menu.ListByRestaurant(c.Request.Context(), restaurantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.menu.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	item, err := h.menu.Create(c.Request.Context(), menuInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	item, err := h.menu.Update(c.Request.Context(), id, menuInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.menu.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func menuInput(req MenuItemRequest) services.MenuItemInput {
	return services.MenuItemInput{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        *req.Price,
		IsAvailable:  req.available(),
	}
}
