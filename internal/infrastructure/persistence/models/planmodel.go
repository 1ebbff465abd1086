package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanModel is the GORM model for the plans table.
type PlanModel struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:100;not null"`
	PriceUSDT   decimal.Decimal `gorm:"column:price_usdt;type:decimal(20,2);not null"`
	CreditGrant decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}
