package handlers

import (
	"context"
	"net/http"
	"time"

	orders "inventory-system/internal/services/orders/handler"

	"github.com/gin-gonic/gin"
)

type OrderHTTPHandler struct {
	orders *orders.OrderHandler
}

func NewOrderHTTPHandler(orderService *orders.OrderHandler) *OrderHTTPHandler {
	return &OrderHTTPHandler{
		orders: orderService,
	}
}

type ApplyDiscountsRequest struct {
	Discounts []orders.DiscountSpec `json:"discounts"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderHistoryQuery struct {
	Status string `form:"status"`
}

func (h *OrderHTTPHandler) CreateOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req orders.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.orders.CreateOrder(ctx, caller, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Order created successfully", order))
}

func (h *OrderHTTPHandler) ListOrders(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	list, err := h.orders.ListOrders(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Orders retrieved successfully", list))
}

func (h *OrderHTTPHandler) OrderHistory(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var query OrderHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	list, err := h.orders.OrderHistory(c.Request.Context(), caller, query.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order history retrieved successfully", list))
}

func (h *OrderHTTPHandler) GetOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", order))
}

func (h *OrderHTTPHandler) UpdateOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req orders.OrderPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order updated successfully", order))
}

func (h *OrderHTTPHandler) DeleteOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order deleted successfully", nil))
}

func (h *OrderHTTPHandler) ApplyDiscounts(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req ApplyDiscountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.orders.ApplyDiscounts(ctx, caller, id, req.Discounts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Discounts applied successfully", order))
}

func (h *OrderHTTPHandler) UpdateStatus(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order status updated to "+string(order.Status), order))
}
