package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

// ListFilter narrows admin and per-user order listings. Nil fields do not filter.
type ListFilter struct {
	UserID    *uint
	Status    *vo.OrderStatus
	Chain     *vo.Chain
	From      *time.Time
	To        *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Page      int
	PageSize  int
}

// Repository is the order ledger. Every status change is a compare-and-swap on
// the current live status and reports whether this call won.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)

	// FindLiveByAddressAndAmount returns the oldest unexpired pending or seen
	// order for the exact (address, chain, amount), or nil.
	FindLiveByAddressAndAmount(ctx context.Context, address string, chain vo.Chain, amount decimal.Decimal, now time.Time) (*Order, error)
	// ListLiveAmounts returns amount_due of every unexpired pending or seen order on address.
	ListLiveAmounts(ctx context.Context, address string, chain vo.Chain, now time.Time) ([]decimal.Decimal, error)

	TransitionToCredited(ctx context.Context, id uint, receipt PaymentReceipt) (bool, error)
	TransitionToSeen(ctx context.Context, id uint, txHash string, now time.Time) (bool, error)
	TransitionToExpired(ctx context.Context, id uint, now time.Time) (bool, error)
	TransitionToFailed(ctx context.Context, id uint, note string, now time.Time) (bool, error)
	// ExpireOverdue expires every live order whose expires_at is before now.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
