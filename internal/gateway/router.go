// Package gateway assembles the HTTP surface of the inventory backend.
package gateway

import (
	"inventory-system/internal/gateway/handlers"
	"inventory-system/internal/gateway/middleware"
	"inventory-system/internal/health"
	"inventory-system/internal/logger"
	"inventory-system/internal/metrics"
	inventory "inventory-system/internal/services/inventory/handler"
	orders "inventory-system/internal/services/orders/handler"
	users "inventory-system/internal/services/user/handler"
	"inventory-system/internal/utils"

	"github.com/gin-gonic/gin"
)

type Services struct {
	Users     *users.UserHandler
	Inventory *inventory.InventoryHandler
	Orders    *orders.OrderHandler
	Health    *health.Checker
	JWT       *utils.JWTUtil
}

type Options struct {
	// RateLimit uses limiter's formatted notation. Empty disables limiting.
	RateLimit string
}

func NewRouter(svc Services, opts Options) (*gin.Engine, error) {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())
	r.Use(logger.Middleware())
	r.Use(metrics.Middleware())
	if opts.RateLimit != "" {
		limit, err := middleware.RateLimit(opts.RateLimit)
		if err != nil {
			return nil, err
		}
		r.Use(limit)
	}

	userHandler := handlers.NewUserHTTPHandler(svc.Users)
	inventoryHandler := handlers.NewInventoryHTTPHandler(svc.Inventory)
	orderHandler := handlers.NewOrderHTTPHandler(svc.Orders)
	healthHandler := handlers.NewHealthHTTPHandler(svc.Health)

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/token", userHandler.Login)
		public.POST("/token/refresh", userHandler.Refresh)
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(svc.JWT, svc.Users))
	{
		protected.GET("/me", userHandler.Me)

		items := protected.Group("/inventory")
		{
			items.GET("", inventoryHandler.ListItems)
			items.POST("", inventoryHandler.CreateItem)
			items.GET("/:id", inventoryHandler.GetItem)
			items.PUT("/:id", inventoryHandler.UpdateItem)
			items.DELETE("/:id", inventoryHandler.DeleteItem)
		}
		protected.GET("/inventory-report", inventoryHandler.ExportCSV)
		protected.GET("/low-stock", inventoryHandler.LowStock)

		suppliers := protected.Group("/suppliers")
		{
			suppliers.GET("", inventoryHandler.ListSuppliers)
			suppliers.POST("", inventoryHandler.CreateSupplier)
			suppliers.GET("/:id", inventoryHandler.GetSupplier)
			suppliers.PUT("/:id", inventoryHandler.UpdateSupplier)
			suppliers.DELETE("/:id", inventoryHandler.DeleteSupplier)
		}

		orderGroup := protected.Group("/orders")
		{
			orderGroup.GET("", orderHandler.ListOrders)
			orderGroup.POST("", orderHandler.CreateOrder)
			orderGroup.GET("/history", orderHandler.OrderHistory)
			orderGroup.GET("/:id", orderHandler.GetOrder)
			orderGroup.PUT("/:id", orderHandler.UpdateOrder)
			orderGroup.DELETE("/:id", orderHandler.DeleteOrder)
			orderGroup.POST("/:id/discounts", orderHandler.ApplyDiscounts)
			orderGroup.POST("/:id/update-status", orderHandler.UpdateStatus)
		}
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/health/detailed", healthHandler.Detailed)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r, nil
}
