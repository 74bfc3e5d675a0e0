package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tailor-orders/internal/database"
	"tailor-orders/internal/middleware"
	"tailor-orders/internal/models"
)

type OrdersHandler struct {
	store *database.Store
}

func NewOrdersHandler(store *database.Store) *OrdersHandler {
	return &OrdersHandler{store: store}
}

// CreateOrder accepts a new order from the public intake form. The phone
// number is the only required field.
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available", Message: "database not available"})
		return
	}

	var payload models.OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if strings.TrimSpace(payload.PhoneNumber) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "phoneNumber is required"})
		return
	}

	order, err := h.store.CreateOrder(uuid.New(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the full collection, newest first. Customer contact
// details are redacted for unauthenticated callers.
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available", Message: "database not available"})
		return
	}

	orders, err := h.store.ListOrders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list orders",
			Message: err.Error(),
		})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	if _, authenticated := c.Get(middleware.UserIDKey); !authenticated {
		for i := range orders {
			orders[i].PhoneNumber = maskPhone(orders[i].PhoneNumber)
			orders[i].Address = ""
		}
	}

	c.JSON(http.StatusOK, orders)
}

// UpdateOrder replaces an existing order with a resubmitted draft.
func (h *OrdersHandler) UpdateOrder(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available", Message: "database not available"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id", Message: "invalid order id"})
		return
	}

	var payload models.OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if strings.TrimSpace(payload.PhoneNumber) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "phoneNumber is required"})
		return
	}

	order, err := h.store.UpdateOrder(orderID, payload)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found", Message: "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateStatus advances an order along pending -> in-progress -> completed.
// Requests that skip a step or leave the terminal state are rejected.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available", Message: "database not available"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id", Message: "invalid order id"})
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "unknown status: " + string(req.Status)})
		return
	}

	current, err := h.store.GetOrder(orderID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found", Message: "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load order",
			Message: err.Error(),
		})
		return
	}

	if current.Status == models.StatusCompleted {
		c.JSON(http.StatusConflict, models.ErrorResponse{Message: "order is already completed"})
		return
	}
	if !current.Status.CanTransitionTo(req.Status) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Message: "invalid status transition: " + string(current.Status) + " -> " + string(req.Status),
		})
		return
	}

	order, err := h.store.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update status",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// maskPhone keeps the last four digits visible.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
