package http

import (
	"net/http"

	"delivery-service/internal/domain"
	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCouriers(c *gin.Context) {
	page := pageParams(c)
	out, total, err := h.couriers.ListCouriers(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

// FilterCouriers supports vehicle_type=bike,car plus first-name prefix and
// last-name exclusion filters.
func (h *Handler) FilterCouriers(c *gin.Context) {
	page := pageParams(c)
	out, total, err := h.couriers.FilterCouriers(c.Request.Context(),
		c.Query("vehicle_type"),
		c.Query("first_name_starts_with"),
		c.Query("exclude_last_name_contains"),
		page,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

func (h *Handler) GetCourier(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	courier, err := h.couriers.GetCourier(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, courier)
}

func (h *Handler) CreateCourier(c *gin.Context) {
	var req CourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	courier, err := h.couriers.CreateCourier(c.Request.Context(), req.UserID, req.VehicleType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, courier)
}

func (h *Handler) ListDeliveries(c *gin.Context) {
	h.listDeliveries(c, domain.DeliveryStatus(c.Query("status")))
}

// DeliveriesByStatus requires delivery_status=in_progress|delivered.
func (h *Handler) DeliveriesByStatus(c *gin.Context) {
	status := c.Query("delivery_status")
	if status == "" {
		badRequest(c, "delivery_status query parameter is required")
		return
	}
	h.listDeliveries(c, domain.DeliveryStatus(status))
}

func (h *Handler) listDeliveries(c *gin.Context, status domain.DeliveryStatus) {
	page := pageParams(c)
	out, total, err := h.couriers.ListDeliveries(c.Request.Context(), status, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

// ChangeDeliveriesStatus moves every undelivered delivery to the given status.
func (h *Handler) ChangeDeliveriesStatus(c *gin.Context) {
	var req DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	changed, err := h.couriers.ChangeUndeliveredStatus(c.Request.Context(), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, changed)
}

func (h *Handler) GetDelivery(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	d, err := h.couriers.GetDelivery(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDelivery(c *gin.Context) {
	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.OrderID == 0 || req.CourierID == 0 {
		badRequest(c, "orderId and courierId are required")
		return
	}
	d, err := h.couriers.CreateDelivery(c.Request.Context(), deliveryInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDelivery(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	d, err := h.couriers.UpdateDelivery(c.Request.Context(), id, deliveryInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func deliveryInput(req DeliveryRequest) services.DeliveryInput {
	return services.DeliveryInput{
		OrderID:      req.OrderID,
		CourierID:    req.CourierID,
		DeliveryTime: req.DeliveryTime,
		Status:       req.Status,
	}
}
