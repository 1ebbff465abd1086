package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/interfaces/http/handlers"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
)

// PaymentRouteConfig holds dependencies for payment routes.
type PaymentRouteConfig struct {
	PaymentHandler *handlers.PaymentHandler
	AuthMiddleware *middleware.AuthMiddleware
	IngestLimiter  *middleware.RateLimiter
}

// SetupPaymentRoutes configures payment routes.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	payments := engine.Group("/payments")
	{
		payments.POST("/force-check", cfg.PaymentHandler.ForceCheck)

		payments.POST("/ingest",
			cfg.IngestLimiter.Limit(),
			cfg.AuthMiddleware.RequireIngest(),
			cfg.PaymentHandler.IngestPayment,
		)
	}
}
