package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/interfaces/http/handlers"
)

// OrderRouteConfig holds dependencies for public order routes.
type OrderRouteConfig struct {
	OrderHandler *handlers.OrderHandler
}

// SetupOrderRoutes configures order creation and lookup routes.
func SetupOrderRoutes(engine *gin.Engine, cfg *OrderRouteConfig) {
	orders := engine.Group("/orders")
	{
		orders.POST("", cfg.OrderHandler.CreateOrder)
		orders.GET("/:order_no", cfg.OrderHandler.GetOrder)
	}

	engine.GET("/users/:user_id/orders", cfg.OrderHandler.ListUserOrders)
}
