package http

import (
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/orris-inc/usdtpay/internal/interfaces/http/handlers"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/routes"
	"github.com/orris-inc/usdtpay/internal/shared/utils"

	_ "github.com/orris-inc/usdtpay/docs"
)

// SetupRoutes installs global middleware and every route group.
func (c *Container) SetupRoutes() {
	utils.RegisterValidators()

	engine := c.engine
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CustomLogger(c.log))
	engine.Use(middleware.Recovery(c.log))
	engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	engine.Use(middleware.SecurityHeaders())

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/health", handlers.HealthCheck)

	routes.SetupOrderRoutes(engine, &routes.OrderRouteConfig{
		OrderHandler: c.hdlrs.orderHandler,
	})

	routes.SetupPaymentRoutes(engine, &routes.PaymentRouteConfig{
		PaymentHandler: c.hdlrs.paymentHandler,
		AuthMiddleware: c.authMiddleware,
		IngestLimiter:  c.ingestLimiter,
	})

	routes.SetupAdminRoutes(engine, &routes.AdminRouteConfig{
		OrderHandler:   c.hdlrs.adminOrderHandler,
		SettingHandler: c.hdlrs.adminSettingHandler,
		AuthMiddleware: c.authMiddleware,
	})
}
