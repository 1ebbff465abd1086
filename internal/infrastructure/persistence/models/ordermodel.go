package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LiveSlotValue marks a pending or seen order in the live_slot column.
const LiveSlotValue uint8 = 1

// OrderModel is the GORM model for the orders table.
// live_slot is 1 while the order is pending or seen and NULL otherwise, so
// uk_orders_live_amount only constrains live orders.
type OrderModel struct {
	ID            uint              `gorm:"primaryKey"`
	OrderNo       string            `gorm:"uniqueIndex;size:64;not null"`
	UserID        uint              `gorm:"index;not null"`
	PlanID        uint              `gorm:"not null"`
	Chain         string            `gorm:"size:10;not null;uniqueIndex:uk_orders_live_amount,priority:2"`
	ToAddress     string            `gorm:"size:64;not null;uniqueIndex:uk_orders_live_amount,priority:1"`
	AmountDue     decimal.Decimal   `gorm:"type:decimal(20,2);not null;uniqueIndex:uk_orders_live_amount,priority:3"`
	LiveSlot      *uint8            `gorm:"uniqueIndex:uk_orders_live_amount,priority:4"`
	CreditGrant   decimal.Decimal   `gorm:"type:decimal(20,2);not null"`
	Status        string            `gorm:"size:20;not null;index"`
	AmountPaid    *decimal.Decimal  `gorm:"type:decimal(20,2)"`
	FromAddress   *string           `gorm:"size:64"`
	TxHash        *string           `gorm:"size:128;index"`
	Confirmations int               `gorm:"not null;default:0"`
	Degraded      bool              `gorm:"not null;default:false"`
	Metadata      datatypes.JSONMap `gorm:"type:json"`
	ExpiresAt     time.Time         `gorm:"not null;index"`
	PaidAt        *time.Time        `gorm:"index"`
	CreatedAt     time.Time         `gorm:"index"`
	UpdatedAt     time.Time         `gorm:"not null"`
}

func (OrderModel) TableName() string {
	return "orders"
}
