package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// ExpireOrdersUseCase releases the amounts of live orders past their window.
type ExpireOrdersUseCase struct {
	orderRepo order.Repository
	now       func() time.Time
	logger    logger.Interface
}

func NewExpireOrdersUseCase(orderRepo order.Repository, logger logger.Interface) *ExpireOrdersUseCase {
	return &ExpireOrdersUseCase{
		orderRepo: orderRepo,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

func (uc *ExpireOrdersUseCase) Execute(ctx context.Context) (int64, error) {
	count, err := uc.orderRepo.ExpireOverdue(ctx, uc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue orders: %w", err)
	}
	if count > 0 {
		uc.logger.Infow("expired overdue orders", "count", count)
	}
	return count, nil
}
