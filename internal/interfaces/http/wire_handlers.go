package http

import (
	"github.com/orris-inc/usdtpay/internal/interfaces/http/handlers"
	adminHandlers "github.com/orris-inc/usdtpay/internal/interfaces/http/handlers/admin"
)

type allHandlers struct {
	orderHandler        *handlers.OrderHandler
	paymentHandler      *handlers.PaymentHandler
	adminOrderHandler   *adminHandlers.OrderHandler
	adminSettingHandler *adminHandlers.SettingHandler
}

func (c *Container) initHandlers() {
	log := c.log
	ucs := c.ucs

	c.hdlrs = &allHandlers{
		orderHandler:        handlers.NewOrderHandler(ucs.createOrderUC, ucs.getOrderStatusUC, log),
		paymentHandler:      handlers.NewPaymentHandler(ucs.ingestPaymentUC, ucs.forceCheckUC, log),
		adminOrderHandler:   adminHandlers.NewOrderHandler(ucs.adminOrdersUC, log),
		adminSettingHandler: adminHandlers.NewSettingHandler(ucs.manageSettingsUC, log),
	}
}
