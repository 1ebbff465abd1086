package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserModel maps the credit columns of the users table. Other user columns are
// owned by the account service and are not touched here.
type UserModel struct {
	ID             uint            `gorm:"primaryKey"`
	CreditBalance  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalSpentUSDT decimal.Decimal `gorm:"column:total_spent_usdt;type:decimal(20,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}
