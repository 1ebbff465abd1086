package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/usdtpay/internal/shared/db"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// OrderRepository is the SQL order ledger. Status changes are conditional
// updates on the current status and report whether a row was changed.
type OrderRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOrderRepository(db *gorm.DB, logger logger.Interface) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func liveStatuses() []string {
	out := make([]string, 0, 2)
	for _, s := range vo.LiveStatuses() {
		out = append(out, s.String())
	}
	return out
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	o.SetID(model.ID)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by order_no: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.OrderModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Chain != nil {
		query = query.Where("chain = ?", filter.Chain.String())
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount_due >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount_due <= ?", *filter.MaxAmount)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var modelList []models.OrderModel
	if err := query.Order("created_at DESC, id DESC").Find(&modelList).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders, err := mappers.OrdersToDomain(modelList)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) liveQuery(ctx context.Context, address string, chain vo.Chain, now time.Time) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("to_address = ? AND chain = ?", chain.CanonicalAddress(address), chain.String()).
		Where("status IN ?", liveStatuses()).
		Where("expires_at > ?", now)
}

func (r *OrderRepository) FindLiveByAddressAndAmount(ctx context.Context, address string, chain vo.Chain, amount decimal.Decimal, now time.Time) (*order.Order, error) {
	var modelList []models.OrderModel

	err := r.liveQuery(ctx, address, chain, now).
		Where("amount_due = ?", vo.RoundAmount(amount)).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&modelList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find live order: %w", err)
	}
	if len(modelList) == 0 {
		return nil, nil
	}

	return mappers.OrderToDomain(&modelList[0])
}

func (r *OrderRepository) ListLiveAmounts(ctx context.Context, address string, chain vo.Chain, now time.Time) ([]decimal.Decimal, error) {
	var modelList []models.OrderModel

	if err := r.liveQuery(ctx, address, chain, now).
		Select("amount_due").
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list live amounts: %w", err)
	}

	amounts := make([]decimal.Decimal, 0, len(modelList))
	for _, m := range modelList {
		amounts = append(amounts, vo.RoundAmount(m.AmountDue))
	}
	return amounts, nil
}

// TransitionToCredited credits a live order. Unless the receipt is manual the
// order must also be unexpired at receipt.PaidAt.
func (r *OrderRepository) TransitionToCredited(ctx context.Context, id uint, receipt order.PaymentReceipt) (bool, error) {
	updates := map[string]interface{}{
		"status":        vo.OrderStatusCredited.String(),
		"live_slot":     nil,
		"amount_paid":   vo.RoundAmount(receipt.AmountPaid),
		"confirmations": 1,
		"paid_at":       receipt.PaidAt,
		"updated_at":    receipt.PaidAt,
	}
	if receipt.TxHash != "" {
		updates["tx_hash"] = receipt.TxHash
	}
	if receipt.FromAddress != "" {
		updates["from_address"] = receipt.FromAddress
	}

	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ? AND status IN ?", id, liveStatuses())
	if !receipt.Manual {
		query = query.Where("expires_at > ?", receipt.PaidAt)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to credit order: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *OrderRepository) TransitionToSeen(ctx context.Context, id uint, txHash string, now time.Time) (bool, error) {
	return r.transitionWithMetadata(ctx, id, []string{vo.OrderStatusPending.String()}, vo.OrderStatusSeen,
		func(o *order.Order) error { return o.MarkSeen(txHash, now) }, now)
}

func (r *OrderRepository) TransitionToFailed(ctx context.Context, id uint, note string, now time.Time) (bool, error) {
	return r.transitionWithMetadata(ctx, id, liveStatuses(), vo.OrderStatusFailed,
		func(o *order.Order) error { return o.Fail(note, now) }, now)
}

// transitionWithMetadata applies a domain transition that also edits metadata,
// then writes it back only if the row still has one of the from statuses.
func (r *OrderRepository) transitionWithMetadata(
	ctx context.Context,
	id uint,
	from []string,
	next vo.OrderStatus,
	apply func(o *order.Order) error,
	now time.Time,
) (bool, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		if err == order.ErrOrderNotFound {
			return false, nil
		}
		return false, err
	}
	if err := apply(current); err != nil {
		return false, nil
	}

	updates := map[string]interface{}{
		"status":     next.String(),
		"metadata":   mappers.OrderToModel(current).Metadata,
		"updated_at": now,
	}
	if !next.IsLive() {
		updates["live_slot"] = nil
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to move order to %s: %w", next, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *OrderRepository) TransitionToExpired(ctx context.Context, id uint, now time.Time) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ? AND status IN ?", id, liveStatuses()).
		Updates(map[string]interface{}{
			"status":     vo.OrderStatusExpired.String(),
			"live_slot":  nil,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to expire order: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *OrderRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("status IN ? AND expires_at < ?", liveStatuses(), now).
		Updates(map[string]interface{}{
			"status":     vo.OrderStatusExpired.String(),
			"live_slot":  nil,
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to expire overdue orders", "error", result.Error)
		return 0, fmt.Errorf("failed to expire overdue orders: %w", result.Error)
	}
	return result.RowsAffected, nil
}
