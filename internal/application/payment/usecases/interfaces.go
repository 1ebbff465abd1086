package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/usdtpay/internal/application/payment/fingerprint"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

// Transactor runs fn inside one storage transaction. *db.TransactionManager satisfies it.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AmountAllocator hands out (address, amount) pairs for new orders.
type AmountAllocator interface {
	Allocate(ctx context.Context, chain vo.Chain, base decimal.Decimal) (*fingerprint.Allocation, error)
	Degraded(ctx context.Context, chain vo.Chain, base decimal.Decimal) (*fingerprint.Allocation, error)
}

// PaymentNotifier delivers the payment.confirmed event for a credited order.
// sent is false when no webhook is configured.
type PaymentNotifier interface {
	NotifyPaymentConfirmed(ctx context.Context, o *order.Order) (sent bool, err error)
}

// AddressChecker runs one fetch-and-match pass for a single pool address.
type AddressChecker interface {
	CheckAddress(ctx context.Context, chain vo.Chain, address string) error
}
