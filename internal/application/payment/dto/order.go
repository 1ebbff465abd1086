package dto

import (
	"time"

	"github.com/orris-inc/usdtpay/internal/domain/order"
)

// OrderDTO is the client-facing view of an order. Amounts are fixed two-decimal strings.
type OrderDTO struct {
	ID          uint                   `json:"id"`
	OrderNo     string                 `json:"order_no"`
	UserID      uint                   `json:"user_id"`
	PlanID      uint                   `json:"plan_id"`
	Chain       string                 `json:"chain"`
	Token       string                 `json:"token"`
	Status      string                 `json:"status"`
	ToAddress   string                 `json:"to_address"`
	AmountDue   string                 `json:"amount_due"`
	AmountPaid  *string                `json:"amount_paid"`
	CreditGrant string                 `json:"credit_grant"`
	FromAddress *string                `json:"from_address"`
	TxHash      *string                `json:"tx_hash"`
	Degraded    bool                   `json:"degraded,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	ExpiresAt   time.Time              `json:"expires_at"`
	PaidAt      *time.Time             `json:"paid_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToOrderDTO renders o as seen at now, so an overdue live order reads as expired.
func ToOrderDTO(o *order.Order, now time.Time) *OrderDTO {
	if o == nil {
		return nil
	}

	var amountPaid *string
	if p := o.AmountPaid(); p != nil {
		s := p.StringFixed(2)
		amountPaid = &s
	}

	return &OrderDTO{
		ID:          o.ID(),
		OrderNo:     o.OrderNo(),
		UserID:      o.UserID(),
		PlanID:      o.PlanID(),
		Chain:       o.Chain().String(),
		Token:       "USDT",
		Status:      o.EffectiveStatus(now).String(),
		ToAddress:   o.ToAddress(),
		AmountDue:   o.AmountDue().StringFixed(2),
		AmountPaid:  amountPaid,
		CreditGrant: o.CreditGrant().StringFixed(2),
		FromAddress: o.FromAddress(),
		TxHash:      o.TxHash(),
		Degraded:    o.Degraded(),
		Metadata:    o.Metadata(),
		CreatedAt:   o.CreatedAt(),
		ExpiresAt:   o.ExpiresAt(),
		PaidAt:      o.PaidAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func ToOrderDTOs(orders []*order.Order, now time.Time) []*OrderDTO {
	out := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderDTO(o, now))
	}
	return out
}

// IngestResultDTO is returned when an externally reported transfer credited an order.
type IngestResultDTO struct {
	MatchedOrderNo string `json:"matched_order_no"`
	Credited       string `json:"credited"`
}

// ForceCheckResultDTO carries the order status after an on-demand check.
type ForceCheckResultDTO struct {
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
	Checked bool   `json:"checked"`
}
