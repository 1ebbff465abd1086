package routes

import (
	"github.com/gin-gonic/gin"

	adminHandlers "github.com/orris-inc/usdtpay/internal/interfaces/http/handlers/admin"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	OrderHandler   *adminHandlers.OrderHandler
	SettingHandler *adminHandlers.SettingHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupAdminRoutes configures the admin order console and settings routes.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	admin := engine.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())

	orders := admin.Group("/orders")
	{
		// specific paths before :id
		orders.GET("", cfg.OrderHandler.ListOrders)
		orders.GET("/export", cfg.OrderHandler.ExportOrders)

		orders.GET("/:id", cfg.OrderHandler.GetOrder)
		orders.POST("/:id/mark-paid", cfg.OrderHandler.MarkPaid)
		orders.POST("/:id/expire", cfg.OrderHandler.ExpireOrder)
		orders.POST("/:id/fail", cfg.OrderHandler.FailOrder)
	}

	settings := admin.Group("/settings")
	{
		settings.GET("", cfg.SettingHandler.GetSettings)
		settings.PATCH("", cfg.SettingHandler.UpdateSettings)
	}
}
