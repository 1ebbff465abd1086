package chainwatch

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

// ErrNoAPIKey is returned by a TransferSource that needs an explorer API key
// and has none configured.
var ErrNoAPIKey = errors.New("explorer API key not configured")

// Transfer is one inbound USDT token transfer observed on chain.
type Transfer struct {
	Chain  vo.Chain
	TxHash string
	From   string
	To     string
	// Amount is already converted from base units and rounded to cents.
	Amount    decimal.Decimal
	Timestamp time.Time
}

// TransferSource lists the most recent USDT transfers received by an address.
type TransferSource interface {
	RecentTransfers(ctx context.Context, chain vo.Chain, address string) ([]Transfer, error)
}
