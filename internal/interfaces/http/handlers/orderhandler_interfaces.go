package handlers

import (
	"context"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/application/payment/usecases"
)

// Use case interfaces for OrderHandler and PaymentHandler

type createOrderUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateOrderCommand) (*dto.OrderDTO, error)
}

type getOrderStatusUseCase interface {
	Execute(ctx context.Context, orderNo string) (*dto.OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uint, page, pageSize int) ([]*dto.OrderDTO, int64, error)
}

type ingestPaymentUseCase interface {
	Execute(ctx context.Context, cmd usecases.IngestPaymentCommand) (*dto.IngestResultDTO, error)
}

type forceCheckUseCase interface {
	Execute(ctx context.Context, orderNo string) (*dto.ForceCheckResultDTO, error)
}
