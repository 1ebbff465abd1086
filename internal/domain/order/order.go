// Package order holds the payment order aggregate and its lifecycle rules.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// PaymentReceipt is what a matched on-chain transfer (or an admin) contributes
// when an order is credited.
type PaymentReceipt struct {
	AmountPaid  decimal.Decimal
	TxHash      string
	FromAddress string
	PaidAt      time.Time
	// Manual credits come from an operator and are allowed past expires_at.
	Manual bool
}

// Order is a request to pay amountDue USDT to toAddress on chain.
// amountDue and toAddress never change after creation.
type Order struct {
	id          uint
	orderNo     string
	userID      uint
	planID      uint
	chain       vo.Chain
	toAddress   string
	amountDue   decimal.Decimal
	creditGrant decimal.Decimal
	status      vo.OrderStatus

	amountPaid    *decimal.Decimal
	fromAddress   *string
	txHash        *string
	confirmations int
	// degraded orders were allocated after fingerprint exhaustion and carry no uniqueness guarantee.
	degraded bool

	metadata map[string]interface{}

	createdAt time.Time
	expiresAt time.Time
	paidAt    *time.Time
	updatedAt time.Time
}

// NewOrder builds a pending order. creditGrant is snapshotted from the plan so
// later plan edits do not change what this order awards.
func NewOrder(orderNo string, userID, planID uint, chain vo.Chain, toAddress string,
	amountDue, creditGrant decimal.Decimal, now time.Time, ttl time.Duration) (*Order, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !chain.IsValid() {
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
	if toAddress == "" {
		return nil, fmt.Errorf("receiving address is required")
	}
	if !amountDue.IsPositive() {
		return nil, fmt.Errorf("amount due must be positive")
	}
	if creditGrant.IsNegative() {
		return nil, fmt.Errorf("credit grant cannot be negative")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("order ttl must be positive")
	}

	return &Order{
		orderNo:     orderNo,
		userID:      userID,
		planID:      planID,
		chain:       chain,
		toAddress:   chain.CanonicalAddress(toAddress),
		amountDue:   vo.RoundAmount(amountDue),
		creditGrant: creditGrant,
		status:      vo.OrderStatusPending,
		metadata:    make(map[string]interface{}),
		createdAt:   now,
		expiresAt:   now.Add(ttl),
		updatedAt:   now,
	}, nil
}

// ReconstructOrder rebuilds an order from storage without validation.
func ReconstructOrder(
	id uint,
	orderNo string,
	userID, planID uint,
	chain vo.Chain,
	toAddress string,
	amountDue, creditGrant decimal.Decimal,
	status vo.OrderStatus,
	amountPaid *decimal.Decimal,
	fromAddress, txHash *string,
	confirmations int,
	degraded bool,
	metadata map[string]interface{},
	createdAt, expiresAt time.Time,
	paidAt *time.Time,
	updatedAt time.Time,
) *Order {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &Order{
		id:            id,
		orderNo:       orderNo,
		userID:        userID,
		planID:        planID,
		chain:         chain,
		toAddress:     toAddress,
		amountDue:     amountDue,
		creditGrant:   creditGrant,
		status:        status,
		amountPaid:    amountPaid,
		fromAddress:   fromAddress,
		txHash:        txHash,
		confirmations: confirmations,
		degraded:      degraded,
		metadata:      metadata,
		createdAt:     createdAt,
		expiresAt:     expiresAt,
		paidAt:        paidAt,
		updatedAt:     updatedAt,
	}
}

func (o *Order) ID() uint {
	return o.id
}

func (o *Order) OrderNo() string {
	return o.orderNo
}

func (o *Order) UserID() uint {
	return o.userID
}

func (o *Order) PlanID() uint {
	return o.planID
}

func (o *Order) Chain() vo.Chain {
	return o.chain
}

func (o *Order) ToAddress() string {
	return o.toAddress
}

func (o *Order) AmountDue() decimal.Decimal {
	return o.amountDue
}

func (o *Order) CreditGrant() decimal.Decimal {
	return o.creditGrant
}

func (o *Order) Status() vo.OrderStatus {
	return o.status
}

func (o *Order) AmountPaid() *decimal.Decimal {
	return o.amountPaid
}

func (o *Order) FromAddress() *string {
	return o.fromAddress
}

func (o *Order) TxHash() *string {
	return o.txHash
}

func (o *Order) Confirmations() int {
	return o.confirmations
}

func (o *Order) Degraded() bool {
	return o.degraded
}

func (o *Order) Metadata() map[string]interface{} {
	return o.metadata
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) ExpiresAt() time.Time {
	return o.expiresAt
}

func (o *Order) PaidAt() *time.Time {
	return o.paidAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// SetID is called by the repository after insert.
func (o *Order) SetID(id uint) {
	o.id = id
}

// MarkDegraded flags an order allocated without a unique fingerprint.
func (o *Order) MarkDegraded() {
	o.degraded = true
}

func (o *Order) Fingerprint() int {
	return vo.FingerprintOf(o.amountDue)
}

// IsOverdue reports whether a live order has passed its expiry.
func (o *Order) IsOverdue(now time.Time) bool {
	return o.status.IsLive() && now.After(o.expiresAt)
}

// EffectiveStatus is the status a reader should see at now: overdue live
// orders read as expired even before the expiry is persisted.
func (o *Order) EffectiveStatus(now time.Time) vo.OrderStatus {
	if o.IsOverdue(now) {
		return vo.OrderStatusExpired
	}
	return o.status
}

func (o *Order) transition(next vo.OrderStatus, now time.Time) error {
	if !o.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, next)
	}
	o.status = next
	o.updatedAt = now
	return nil
}

// MarkSeen records an observation that cannot be credited yet.
func (o *Order) MarkSeen(txHash string, now time.Time) error {
	if err := o.transition(vo.OrderStatusSeen, now); err != nil {
		return err
	}
	o.metadata["seen_tx_hash"] = txHash
	return nil
}

// Credit moves a live order to credited and records the payment.
func (o *Order) Credit(r PaymentReceipt) error {
	if !r.Manual && r.PaidAt.After(o.expiresAt) {
		return fmt.Errorf("%w: order expired at %s", ErrInvalidTransition, o.expiresAt.Format(time.RFC3339))
	}
	if err := o.transition(vo.OrderStatusCredited, r.PaidAt); err != nil {
		return err
	}
	paid := vo.RoundAmount(r.AmountPaid)
	paidAt := r.PaidAt
	o.amountPaid = &paid
	o.paidAt = &paidAt
	o.confirmations = 1
	if r.TxHash != "" {
		tx := r.TxHash
		o.txHash = &tx
	}
	if r.FromAddress != "" {
		from := r.FromAddress
		o.fromAddress = &from
	}
	return nil
}

func (o *Order) Expire(now time.Time) error {
	return o.transition(vo.OrderStatusExpired, now)
}

// Fail is an operator override; note is kept in metadata.
func (o *Order) Fail(note string, now time.Time) error {
	if err := o.transition(vo.OrderStatusFailed, now); err != nil {
		return err
	}
	if note != "" {
		o.metadata["failure_note"] = note
	}
	return nil
}
