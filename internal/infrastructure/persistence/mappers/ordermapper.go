package mappers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
)

func OrderToModel(o *order.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:            o.ID(),
		OrderNo:       o.OrderNo(),
		UserID:        o.UserID(),
		PlanID:        o.PlanID(),
		Chain:         o.Chain().String(),
		ToAddress:     o.ToAddress(),
		AmountDue:     o.AmountDue(),
		LiveSlot:      LiveSlotFor(o),
		CreditGrant:   o.CreditGrant(),
		Status:        o.Status().String(),
		AmountPaid:    o.AmountPaid(),
		FromAddress:   o.FromAddress(),
		TxHash:        o.TxHash(),
		Confirmations: o.Confirmations(),
		Degraded:      o.Degraded(),
		ExpiresAt:     o.ExpiresAt(),
		PaidAt:        o.PaidAt(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}

	if len(o.Metadata()) > 0 {
		model.Metadata = o.Metadata()
	}

	return model
}

// LiveSlotFor returns the live_slot value for o. Degraded orders never take a
// slot because their amount may collide with another live order.
func LiveSlotFor(o *order.Order) *uint8 {
	if !o.Status().IsLive() || o.Degraded() {
		return nil
	}
	slot := models.LiveSlotValue
	return &slot
}

func OrderToDomain(model *models.OrderModel) (*order.Order, error) {
	chain := vo.Chain(model.Chain)
	if !chain.IsValid() {
		return nil, fmt.Errorf("invalid chain: %s", model.Chain)
	}

	status, err := vo.ParseOrderStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid order status: %w", err)
	}

	var amountPaid *decimal.Decimal
	if model.AmountPaid != nil {
		paid := vo.RoundAmount(*model.AmountPaid)
		amountPaid = &paid
	}

	return order.ReconstructOrder(
		model.ID,
		model.OrderNo,
		model.UserID,
		model.PlanID,
		chain,
		model.ToAddress,
		vo.RoundAmount(model.AmountDue),
		model.CreditGrant,
		status,
		amountPaid,
		model.FromAddress,
		model.TxHash,
		model.Confirmations,
		model.Degraded,
		model.Metadata,
		model.CreatedAt.UTC(),
		model.ExpiresAt.UTC(),
		utcPtr(model.PaidAt),
		model.UpdatedAt.UTC(),
	), nil
}

func OrdersToDomain(modelList []models.OrderModel) ([]*order.Order, error) {
	out := make([]*order.Order, 0, len(modelList))
	for i := range modelList {
		o, err := OrderToDomain(&modelList[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
