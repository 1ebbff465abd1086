package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

// GetOrderStatusUseCase serves storefront status polling. Reading an overdue
// live order persists its expiry.
type GetOrderStatusUseCase struct {
	orderRepo order.Repository
	now       func() time.Time
	logger    logger.Interface
}

func NewGetOrderStatusUseCase(orderRepo order.Repository, logger logger.Interface) *GetOrderStatusUseCase {
	return &GetOrderStatusUseCase{
		orderRepo: orderRepo,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

func (uc *GetOrderStatusUseCase) Execute(ctx context.Context, orderNo string) (*dto.OrderDTO, error) {
	if orderNo == "" {
		return nil, apperrors.NewValidationError("order_no is required")
	}
	o, err := loadOrderByNo(ctx, uc.orderRepo, orderNo)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	o, err = expireIfOverdue(ctx, uc.orderRepo, o, now, uc.logger)
	if err != nil {
		return nil, err
	}
	return dto.ToOrderDTO(o, now), nil
}

// ListUserOrders returns one user's orders, newest first.
func (uc *GetOrderStatusUseCase) ListUserOrders(ctx context.Context, userID uint, page, pageSize int) ([]*dto.OrderDTO, int64, error) {
	if userID == 0 {
		return nil, 0, apperrors.NewValidationError("user_id is required")
	}
	p := utils.ValidatePagination(page, pageSize)
	orders, total, err := uc.orderRepo.List(ctx, order.ListFilter{
		UserID:   &userID,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return dto.ToOrderDTOs(orders, uc.now()), total, nil
}

func loadOrderByNo(ctx context.Context, repo order.Repository, orderNo string) (*order.Order, error) {
	o, err := repo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperrors.NewNotFoundError("order not found", orderNo)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return o, nil
}

// expireIfOverdue persists the expiry of an overdue live order. If a credit
// won the race the stored order is returned instead.
func expireIfOverdue(ctx context.Context, repo order.Repository, o *order.Order, now time.Time, log logger.Interface) (*order.Order, error) {
	if !o.IsOverdue(now) {
		return o, nil
	}
	won, err := repo.TransitionToExpired(ctx, o.ID(), now)
	if err != nil {
		log.Warnw("failed to persist lazy expiry",
			"order_no", o.OrderNo(),
			"error", err,
		)
		return o, nil
	}
	if won {
		_ = o.Expire(now)
		log.Infow("order expired on read", "order_no", o.OrderNo())
		return o, nil
	}
	return repo.GetByID(ctx, o.ID())
}
