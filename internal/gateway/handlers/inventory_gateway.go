package handlers

import (
	"context"
	"net/http"
	"time"

	"inventory-system/internal/logger"
	inventory "inventory-system/internal/services/inventory/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHTTPHandler struct {
	inventory *inventory.InventoryHandler
}

func NewInventoryHTTPHandler(inventoryService *inventory.InventoryHandler) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{
		inventory: inventoryService,
	}
}

type ListItemsQuery struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Search   string `form:"search"`
}

// --- Items ---

func (h *InventoryHTTPHandler) CreateItem(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req inventory.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	item, err := h.inventory.CreateItem(ctx, caller, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Item created successfully", item))
}

func (h *InventoryHTTPHandler) ListItems(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var query ListItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	items, total, err := h.inventory.ListItems(c.Request.Context(), caller, inventory.ListParams{
		Page:     query.Page,
		PageSize: query.PageSize,
		Search:   query.Search,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Items retrieved successfully", items, PageMeta{
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    total,
	}))
}

func (h *InventoryHTTPHandler) GetItem(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "item")
	if !ok {
		return
	}

	item, err := h.inventory.GetItem(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Item retrieved successfully", item))
}

func (h *InventoryHTTPHandler) UpdateItem(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "item")
	if !ok {
		return
	}

	var req inventory.ItemPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	item, err := h.inventory.UpdateItem(ctx, caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Item updated successfully", item))
}

func (h *InventoryHTTPHandler) DeleteItem(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "item")
	if !ok {
		return
	}

	if err := h.inventory.DeleteItem(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Item deleted successfully", nil))
}

func (h *InventoryHTTPHandler) LowStock(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	items, err := h.inventory.LowStock(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Low stock items retrieved successfully", items))
}

func (h *InventoryHTTPHandler) ExportCSV(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="inventory.csv"`)
	c.Status(http.StatusOK)

	if err := h.inventory.ExportCSV(c.Request.Context(), caller, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			respondError(c, err)
			return
		}
		logger.FromGin(c).Error("csv export aborted mid-stream", zap.Error(err))
	}
}

// --- Suppliers ---

func (h *InventoryHTTPHandler) CreateSupplier(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req inventory.SupplierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	supplier, err := h.inventory.CreateSupplier(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Supplier created successfully", supplier))
}

func (h *InventoryHTTPHandler) ListSuppliers(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	suppliers, err := h.inventory.ListSuppliers(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Suppliers retrieved successfully", suppliers))
}

func (h *InventoryHTTPHandler) GetSupplier(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "supplier")
	if !ok {
		return
	}

	supplier, err := h.inventory.GetSupplier(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier retrieved successfully", supplier))
}

func (h *InventoryHTTPHandler) UpdateSupplier(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "supplier")
	if !ok {
		return
	}

	var req inventory.SupplierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	supplier, err := h.inventory.UpdateSupplier(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier updated successfully", supplier))
}

func (h *InventoryHTTPHandler) DeleteSupplier(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "supplier")
	if !ok {
		return
	}

	if err := h.inventory.DeleteSupplier(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier deleted successfully", nil))
}
