package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// ForceCheckUseCase lets a client skip the poll interval for one order.
type ForceCheckUseCase struct {
	orderRepo order.Repository
	checker   AddressChecker
	now       func() time.Time
	logger    logger.Interface
}

func NewForceCheckUseCase(orderRepo order.Repository, checker AddressChecker, logger logger.Interface) *ForceCheckUseCase {
	return &ForceCheckUseCase{
		orderRepo: orderRepo,
		checker:   checker,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

// Execute re-runs the chain fetch for the order's address when the order is
// still live, then reports the stored status. An upstream failure is logged and
// the current status returned.
func (uc *ForceCheckUseCase) Execute(ctx context.Context, orderNo string) (*dto.ForceCheckResultDTO, error) {
	if orderNo == "" {
		return nil, apperrors.NewValidationError("order_no is required")
	}
	o, err := loadOrderByNo(ctx, uc.orderRepo, orderNo)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if o, err = expireIfOverdue(ctx, uc.orderRepo, o, now, uc.logger); err != nil {
		return nil, err
	}
	if !o.EffectiveStatus(now).IsLive() {
		return &dto.ForceCheckResultDTO{OrderNo: o.OrderNo(), Status: o.EffectiveStatus(now).String()}, nil
	}

	if err := uc.checker.CheckAddress(ctx, o.Chain(), o.ToAddress()); err != nil {
		uc.logger.Warnw("force check fetch failed",
			"order_no", o.OrderNo(),
			"chain", o.Chain(),
			"address", o.ToAddress(),
			"error", err,
		)
	}

	refreshed, err := loadOrderByNo(ctx, uc.orderRepo, orderNo)
	if err != nil {
		return nil, err
	}
	return &dto.ForceCheckResultDTO{
		OrderNo: refreshed.OrderNo(),
		Status:  refreshed.EffectiveStatus(uc.now()).String(),
		Checked: true,
	}, nil
}
