package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/user"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/goroutine"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// Transfers older than the order by more than this are treated as historical.
const seenClockSkew = 30 * time.Second

var errCreditLost = errors.New("order left the live state before credit")

// MatchResult describes what a transfer did. A nil result means it matched no live order.
type MatchResult struct {
	Order    *order.Order
	Credited bool
	// Seen is set when the amount matched but the transfer predates the order.
	Seen bool
}

// MatchTransferUseCase reconciles observed transfers with live orders and
// credits the owning user exactly once.
type MatchTransferUseCase struct {
	orderRepo order.Repository
	userRepo  user.Repository
	txMgr     Transactor
	notifier  PaymentNotifier
	now       func() time.Time
	logger    logger.Interface
}

func NewMatchTransferUseCase(
	orderRepo order.Repository,
	userRepo user.Repository,
	txMgr Transactor,
	notifier PaymentNotifier,
	logger logger.Interface,
) *MatchTransferUseCase {
	return &MatchTransferUseCase{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		txMgr:     txMgr,
		notifier:  notifier,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

// Match looks up the live order carrying exactly t.Amount on t.To and credits
// it. Repeated observations of the same transfer are no-ops because the order
// is no longer live after the first credit.
func (uc *MatchTransferUseCase) Match(ctx context.Context, t chainwatch.Transfer) (*MatchResult, error) {
	if !t.Chain.IsValid() {
		return nil, fmt.Errorf("unsupported chain: %s", t.Chain)
	}
	amount := vo.RoundAmount(t.Amount)
	if !amount.IsPositive() {
		return nil, nil
	}
	address := t.Chain.CanonicalAddress(t.To)
	now := uc.now()

	o, err := uc.orderRepo.FindLiveByAddressAndAmount(ctx, address, t.Chain, amount, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find order for transfer %s: %w", t.TxHash, err)
	}
	if o == nil {
		return nil, nil
	}

	if !t.Timestamp.IsZero() && t.Timestamp.Before(o.CreatedAt().Add(-seenClockSkew)) {
		return uc.markSeen(ctx, o, t, now)
	}

	credited, err := uc.CreditOrder(ctx, o, order.PaymentReceipt{
		AmountPaid:  amount,
		TxHash:      t.TxHash,
		FromAddress: t.From,
		PaidAt:      now,
	})
	if err != nil {
		return nil, err
	}
	return &MatchResult{Order: o, Credited: credited}, nil
}

func (uc *MatchTransferUseCase) markSeen(ctx context.Context, o *order.Order, t chainwatch.Transfer, now time.Time) (*MatchResult, error) {
	if o.Status() == vo.OrderStatusSeen {
		return &MatchResult{Order: o, Seen: true}, nil
	}
	won, err := uc.orderRepo.TransitionToSeen(ctx, o.ID(), t.TxHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %s seen: %w", o.OrderNo(), err)
	}
	if won {
		_ = o.MarkSeen(t.TxHash, now)
		uc.logger.Infow("transfer predates order, marked seen",
			"order_no", o.OrderNo(),
			"tx_hash", t.TxHash,
			"tx_time", t.Timestamp,
			"created_at", o.CreatedAt(),
		)
	}
	return &MatchResult{Order: o, Seen: true}, nil
}

// CreditOrder applies receipt to o: the status change and the user's balance
// increments commit together or not at all. It returns false without error when
// another caller already moved the order out of the live state.
func (uc *MatchTransferUseCase) CreditOrder(ctx context.Context, o *order.Order, receipt order.PaymentReceipt) (bool, error) {
	if err := o.Credit(receipt); err != nil {
		return false, err
	}

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		won, err := uc.orderRepo.TransitionToCredited(txCtx, o.ID(), receipt)
		if err != nil {
			return fmt.Errorf("failed to credit order: %w", err)
		}
		if !won {
			return errCreditLost
		}
		if err := uc.userRepo.IncrementCredit(txCtx, o.UserID(), o.CreditGrant(), *o.AmountPaid()); err != nil {
			return fmt.Errorf("failed to credit user %d: %w", o.UserID(), err)
		}
		return nil
	})
	if errors.Is(err, errCreditLost) {
		uc.logger.Debugw("order already settled by another matcher",
			"order_no", o.OrderNo(),
			"tx_hash", receipt.TxHash,
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	uc.logger.Infow("order credited",
		"order_no", o.OrderNo(),
		"chain", o.Chain(),
		"amount_paid", o.AmountPaid().StringFixed(2),
		"tx_hash", receipt.TxHash,
		"user_id", o.UserID(),
		"credit", o.CreditGrant().StringFixed(2),
		"manual", receipt.Manual,
	)

	uc.dispatchNotification(ctx, o)
	return true, nil
}

func (uc *MatchTransferUseCase) dispatchNotification(ctx context.Context, o *order.Order) {
	if uc.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	goroutine.SafeGo(uc.logger, "payment-notify", func() {
		sent, err := uc.notifier.NotifyPaymentConfirmed(notifyCtx, o)
		if err != nil {
			uc.logger.Warnw("payment notification failed",
				"order_no", o.OrderNo(),
				"error", err,
			)
			return
		}
		if sent {
			uc.logger.Debugw("payment notification delivered", "order_no", o.OrderNo())
		}
	})
}
