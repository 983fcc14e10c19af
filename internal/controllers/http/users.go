package http

import (
	"net/http"

	"delivery-service/internal/domain"
	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), a, a.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMe applies a partial profile change to the caller.
func (h *Handler) UpdateMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.users.UpdateSelf(c.Request.Context(), a, services.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), a, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListClients(c *gin.Context) {
	h.listUsersByRole(c, domain.RoleClient)
}

func (h *Handler) ListCourierUsers(c *gin.Context) {
	h.listUsersByRole(c, domain.RoleCourier)
}

func (h *Handler) listUsersByRole(c *gin.Context, role domain.Role) {
	a, ok := actor(c)
	if !ok {
		return
	}
	page := pageParams(c)
	out, total, err := h.users.ListByRole(c.Request.Context(), a, role, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}

func (h *Handler) SearchUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	query := c.Query("search")
	if query == "" {
		badRequest(c, "search query parameter is required")
		return
	}
	page := pageParams(c)
	out, total, err := h.users.Search(c.Request.Context(), a, query, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, total, out)
}
