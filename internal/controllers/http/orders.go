package http

import (
	"net/http"
	"strconv"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"
	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	items := make([]services.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.ItemInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), a, req.RestaurantID, items)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) GetOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), a, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// OrderItemsByOrder pages through the line items of order_id.
func (h *Handler) OrderItemsByOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64)
	if err != nil || orderID == 0 {
		badRequest(c, "order_id query parameter is required")
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), a, orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := toOrderResponse(order).Items
	page := pageParams(c)
	lo := min(page.Offset(), len(items))
	hi := min(lo+page.Size, len(items))
	writePage(c, page, int64(len(items)), items[lo:hi])
}

func (h *Handler) ListOrders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	f := repository.OrderFilter{
		RestaurantName: c.Query("restaurant_name"),
		Status:         domain.OrderStatus(c.Query("status")),
		Ordering:       c.DefaultQuery("ordering", "-order_date"),
		Page:           pageParams(c),
	}
	if !orderings[f.Ordering] {
		badRequest(c, "ordering must be one of order_date, total_price (optionally prefixed with -)")
		return
	}
	if raw := c.Query("user_id"); raw != "" {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "user_id must be a positive integer")
			return
		}
		f.UserID = uid
	}
	if f.MinPrice, ok = optionalDecimal(c, "min_price"); !ok {
		return
	}
	if f.MaxPrice, ok = optionalDecimal(c, "max_price"); !ok {
		return
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), a, f)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, f.Page, total, toOrderResponses(orders))
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), a, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, err := h.orders.ChangeStatus(c.Request.Context(), a, id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) OrderHistory(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	history, err := h.orders.History(c.Request.Context(), a, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) AttentionOrders(c *gin.Context) {
	orders, err := h.orders.AttentionOrders(c.Request.Context(), h.attentionAge)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) BulkTransition(c *gin.Context) {
	var req BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	age, err := time.ParseDuration(req.OlderThan)
	if err != nil {
		badRequest(c, "olderThan must be a duration such as 3h")
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "admin"
	}
	changes, err := h.orders.BulkTransition(c.Request.Context(), req.Status, age, reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(changes), "changes": changes})
}

func (h *Handler) AddItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, err := h.orders.AddItem(c.Request.Context(), a, id, services.ItemInput{MenuItemID: req.MenuItemID, Quantity: req.Quantity})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) UpdateItemQuantity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, err := h.orders.UpdateItemQuantity(c.Request.Context(), a, id, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := h.orders.RemoveItem(c.Request.Context(), a, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
