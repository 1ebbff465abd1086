package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/application/payment/fingerprint"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/plan"
	"github.com/orris-inc/usdtpay/internal/domain/user"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/id"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

type CreateOrderCommand struct {
	UserID uint
	PlanID uint
	Chain  string
}

// CreateOrderConfig tunes allocation retries and the payment window.
type CreateOrderConfig struct {
	OrderTTL          time.Duration
	AllocationRetries int
}

type CreateOrderUseCase struct {
	orderRepo order.Repository
	userRepo  user.Repository
	planRepo  plan.Repository
	allocator AmountAllocator
	config    CreateOrderConfig
	now       func() time.Time
	logger    logger.Interface
}

func NewCreateOrderUseCase(
	orderRepo order.Repository,
	userRepo user.Repository,
	planRepo plan.Repository,
	allocator AmountAllocator,
	config CreateOrderConfig,
	logger logger.Interface,
) *CreateOrderUseCase {
	if config.OrderTTL <= 0 {
		config.OrderTTL = 30 * time.Minute
	}
	if config.AllocationRetries <= 0 {
		config.AllocationRetries = 3
	}
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		planRepo:  planRepo,
		allocator: allocator,
		config:    config,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

// Execute allocates a unique amount on a pool address and persists a pending
// order. A duplicate-key conflict means a concurrent allocation won the same
// amount; it is retried, and after the last attempt the order is stored
// without a uniqueness guarantee.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (*dto.OrderDTO, error) {
	chain, err := vo.ParseChain(cmd.Chain)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid chain", cmd.Chain)
	}
	if cmd.UserID == 0 || cmd.PlanID == 0 {
		return nil, apperrors.NewValidationError("user_id and plan_id are required")
	}

	if _, err := uc.userRepo.GetByID(ctx, cmd.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	p, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if !p.Active {
		return nil, apperrors.NewValidationError("plan is not available")
	}
	if !vo.RoundAmount(p.PriceUSDT).IsPositive() {
		return nil, apperrors.NewValidationError("plan has no USDT price")
	}

	for attempt := 1; attempt <= uc.config.AllocationRetries; attempt++ {
		alloc, err := uc.allocator.Allocate(ctx, chain, p.PriceUSDT)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate payment amount: %w", err)
		}

		o, err := uc.persist(ctx, cmd, chain, p, alloc)
		if err == nil {
			return dto.ToOrderDTO(o, uc.now()), nil
		}
		if !apperrors.IsDuplicateError(err) {
			return nil, err
		}
		uc.logger.Warnw("payment amount taken concurrently, retrying allocation",
			"chain", chain,
			"address", alloc.Address,
			"amount_due", alloc.AmountDue.StringFixed(2),
			"attempt", attempt,
		)
	}

	alloc, err := uc.allocator.Degraded(ctx, chain, p.PriceUSDT)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate payment amount: %w", err)
	}
	o, err := uc.persist(ctx, cmd, chain, p, alloc)
	if err != nil {
		return nil, err
	}
	return dto.ToOrderDTO(o, uc.now()), nil
}

func (uc *CreateOrderUseCase) persist(ctx context.Context, cmd CreateOrderCommand, chain vo.Chain, p *plan.Plan, alloc *fingerprint.Allocation) (*order.Order, error) {
	now := uc.now()
	orderNo, err := id.NewOrderNo(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	o, err := order.NewOrder(orderNo, cmd.UserID, p.ID, chain, alloc.Address, alloc.AmountDue, p.CreditGrant, now, uc.config.OrderTTL)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if alloc.Degraded {
		o.MarkDegraded()
		uc.logger.Warnw("order created without unique payment amount",
			"order_no", orderNo,
			"chain", chain,
			"address", alloc.Address,
			"amount_due", alloc.AmountDue.StringFixed(2),
		)
	}

	if err := uc.orderRepo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	uc.logger.Infow("order created",
		"order_no", o.OrderNo(),
		"user_id", o.UserID(),
		"plan_id", o.PlanID(),
		"chain", chain,
		"address", o.ToAddress(),
		"amount_due", o.AmountDue().StringFixed(2),
		"expires_at", o.ExpiresAt(),
	)
	return o, nil
}
