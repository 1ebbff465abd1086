package usecases

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// IngestPaymentCommand is a transfer reported by an external watcher.
// Amount may arrive as a JSON number or a string.
type IngestPaymentCommand struct {
	Chain       string
	TxHash      string
	ToAddress   string
	FromAddress string
	Amount      interface{}
}

type IngestPaymentUseCase struct {
	matcher *MatchTransferUseCase
	logger  logger.Interface
}

func NewIngestPaymentUseCase(matcher *MatchTransferUseCase, logger logger.Interface) *IngestPaymentUseCase {
	return &IngestPaymentUseCase{
		matcher: matcher,
		logger:  logger,
	}
}

// Execute runs the same match-and-credit as the poller. It returns a
// not-found error when no live order carries the reported amount, including
// when the order was already credited.
func (uc *IngestPaymentUseCase) Execute(ctx context.Context, cmd IngestPaymentCommand) (*dto.IngestResultDTO, error) {
	transfer, err := uc.validate(cmd)
	if err != nil {
		return nil, err
	}

	result, err := uc.matcher.Match(ctx, transfer)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Credited {
		uc.logger.Infow("ingested transfer matched no pending order",
			"chain", transfer.Chain,
			"tx_hash", transfer.TxHash,
			"to_address", transfer.To,
			"amount", transfer.Amount.StringFixed(2),
		)
		return nil, apperrors.NewNotFoundError("no matching pending order")
	}

	return &dto.IngestResultDTO{
		MatchedOrderNo: result.Order.OrderNo(),
		Credited:       result.Order.CreditGrant().StringFixed(2),
	}, nil
}

func (uc *IngestPaymentUseCase) validate(cmd IngestPaymentCommand) (chainwatch.Transfer, error) {
	var missing []string
	if strings.TrimSpace(cmd.Chain) == "" {
		missing = append(missing, "chain")
	}
	if strings.TrimSpace(cmd.TxHash) == "" {
		missing = append(missing, "txHash")
	}
	if strings.TrimSpace(cmd.ToAddress) == "" {
		missing = append(missing, "toAddress")
	}
	if cmd.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return chainwatch.Transfer{}, apperrors.NewValidationError("missing required fields", strings.Join(missing, ", "))
	}

	chain, err := vo.ParseChain(cmd.Chain)
	if err != nil {
		return chainwatch.Transfer{}, apperrors.NewValidationError("invalid chain", cmd.Chain)
	}

	raw, err := cast.ToStringE(cmd.Amount)
	if err != nil {
		return chainwatch.Transfer{}, apperrors.NewValidationError("invalid amount")
	}
	amount, err := vo.ParseAmount(raw)
	if err != nil {
		return chainwatch.Transfer{}, apperrors.NewValidationError("invalid amount", raw)
	}

	return chainwatch.Transfer{
		Chain:  chain,
		TxHash: strings.TrimSpace(cmd.TxHash),
		From:   strings.TrimSpace(cmd.FromAddress),
		To:     strings.TrimSpace(cmd.ToAddress),
		Amount: amount,
	}, nil
}
