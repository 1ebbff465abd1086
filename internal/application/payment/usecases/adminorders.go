package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

const (
	maxExportRows  = 10000
	exportPageSize = 500
	maxNoteLength  = 500
)

// ListOrdersQuery carries raw admin filters. Dates are YYYY-MM-DD in the business timezone.
type ListOrdersQuery struct {
	Status    string
	Chain     string
	From      string
	To        string
	MinAmount string
	MaxAmount string
	Page      int
	PageSize  int
}

type MarkPaidCommand struct {
	TxHash      string
	FromAddress string
	// AmountPaid defaults to the order's amount due.
	AmountPaid string
	Note       string
}

// OrderExporter writes a spreadsheet of orders.
type OrderExporter interface {
	WriteOrders(w io.Writer, orders []*dto.OrderDTO) error
}

// AdminOrdersUseCase covers operator reads and manual reconciliation.
type AdminOrdersUseCase struct {
	orderRepo order.Repository
	matcher   *MatchTransferUseCase
	exporter  OrderExporter
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    logger.Interface
}

func NewAdminOrdersUseCase(
	orderRepo order.Repository,
	matcher *MatchTransferUseCase,
	exporter OrderExporter,
	logger logger.Interface,
) *AdminOrdersUseCase {
	return &AdminOrdersUseCase{
		orderRepo: orderRepo,
		matcher:   matcher,
		exporter:  exporter,
		sanitizer: bluemonday.StrictPolicy(),
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

func (uc *AdminOrdersUseCase) List(ctx context.Context, q ListOrdersQuery) ([]*dto.OrderDTO, int64, error) {
	filter, err := buildListFilter(q)
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := uc.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return dto.ToOrderDTOs(orders, uc.now()), total, nil
}

func (uc *AdminOrdersUseCase) Get(ctx context.Context, id uint) (*dto.OrderDTO, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToOrderDTO(o, uc.now()), nil
}

// Export writes every order matching q, up to maxExportRows.
func (uc *AdminOrdersUseCase) Export(ctx context.Context, q ListOrdersQuery, w io.Writer) error {
	filter, err := buildListFilter(q)
	if err != nil {
		return err
	}
	filter.PageSize = exportPageSize

	var rows []*dto.OrderDTO
	now := uc.now()
	for page := 1; len(rows) < maxExportRows; page++ {
		filter.Page = page
		orders, total, err := uc.orderRepo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list orders for export: %w", err)
		}
		rows = append(rows, dto.ToOrderDTOs(orders, now)...)
		if len(orders) < exportPageSize || int64(len(rows)) >= total {
			break
		}
	}
	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}

	if err := uc.exporter.WriteOrders(w, rows); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	uc.logger.Infow("orders exported", "rows", len(rows))
	return nil
}

// MarkPaid credits an order by hand, past its expiry if needed.
func (uc *AdminOrdersUseCase) MarkPaid(ctx context.Context, id uint, cmd MarkPaidCommand) (*dto.OrderDTO, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status().IsTerminal() {
		return nil, apperrors.NewConflictError("order is already settled", o.Status().String())
	}

	amount := o.AmountDue()
	if strings.TrimSpace(cmd.AmountPaid) != "" {
		if amount, err = vo.ParseAmount(cmd.AmountPaid); err != nil {
			return nil, apperrors.NewValidationError("invalid amount_paid", cmd.AmountPaid)
		}
	}

	receipt := order.PaymentReceipt{
		AmountPaid:  amount,
		TxHash:      strings.TrimSpace(cmd.TxHash),
		FromAddress: strings.TrimSpace(cmd.FromAddress),
		PaidAt:      uc.now(),
		Manual:      true,
	}
	credited, err := uc.matcher.CreditOrder(ctx, o, receipt)
	if err != nil {
		return nil, err
	}
	if !credited {
		return nil, apperrors.NewConflictError("order was settled concurrently")
	}

	uc.logger.Infow("order marked paid by operator",
		"order_no", o.OrderNo(),
		"amount_paid", amount.StringFixed(2),
		"note", uc.sanitize(cmd.Note),
	)
	return dto.ToOrderDTO(o, uc.now()), nil
}

func (uc *AdminOrdersUseCase) Expire(ctx context.Context, id uint) (*dto.OrderDTO, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status().IsTerminal() {
		return nil, apperrors.NewConflictError("order is already settled", o.Status().String())
	}

	now := uc.now()
	won, err := uc.orderRepo.TransitionToExpired(ctx, o.ID(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire order: %w", err)
	}
	if !won {
		return nil, apperrors.NewConflictError("order was settled concurrently")
	}
	_ = o.Expire(now)

	uc.logger.Infow("order expired by operator", "order_no", o.OrderNo())
	return dto.ToOrderDTO(o, now), nil
}

func (uc *AdminOrdersUseCase) Fail(ctx context.Context, id uint, note string) (*dto.OrderDTO, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status().IsTerminal() {
		return nil, apperrors.NewConflictError("order is already settled", o.Status().String())
	}

	clean := uc.sanitize(note)
	now := uc.now()
	won, err := uc.orderRepo.TransitionToFailed(ctx, o.ID(), clean, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fail order: %w", err)
	}
	if !won {
		return nil, apperrors.NewConflictError("order was settled concurrently")
	}
	_ = o.Fail(clean, now)

	uc.logger.Infow("order failed by operator",
		"order_no", o.OrderNo(),
		"note", clean,
	)
	return dto.ToOrderDTO(o, now), nil
}

func (uc *AdminOrdersUseCase) load(ctx context.Context, id uint) (*order.Order, error) {
	o, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperrors.NewNotFoundError("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return o, nil
}

func (uc *AdminOrdersUseCase) sanitize(note string) string {
	clean := strings.TrimSpace(uc.sanitizer.Sanitize(note))
	if len(clean) > maxNoteLength {
		clean = clean[:maxNoteLength]
	}
	return clean
}

func buildListFilter(q ListOrdersQuery) (order.ListFilter, error) {
	p := utils.ValidatePagination(q.Page, q.PageSize)
	filter := order.ListFilter{Page: p.Page, PageSize: p.PageSize}

	if q.Status != "" {
		s, err := vo.ParseOrderStatus(q.Status)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid status", q.Status)
		}
		filter.Status = &s
	}
	if q.Chain != "" {
		c, err := vo.ParseChain(q.Chain)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid chain", q.Chain)
		}
		filter.Chain = &c
	}
	if q.From != "" {
		d, err := biztime.ParseDate(q.From)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid from date", q.From)
		}
		from := biztime.StartOfDayUTC(d)
		filter.From = &from
	}
	if q.To != "" {
		d, err := biztime.ParseDate(q.To)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid to date", q.To)
		}
		to := biztime.EndOfDayUTC(d)
		filter.To = &to
	}
	if q.MinAmount != "" {
		m, err := decimal.NewFromString(q.MinAmount)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid min_amount", q.MinAmount)
		}
		filter.MinAmount = &m
	}
	if q.MaxAmount != "" {
		m, err := decimal.NewFromString(q.MaxAmount)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid max_amount", q.MaxAmount)
		}
		filter.MaxAmount = &m
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, apperrors.NewValidationError("from date is after to date")
	}
	return filter, nil
}
