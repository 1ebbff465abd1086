// Package user exposes the slice of the user account this service mutates.
package user

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrUserNotFound = errors.New("user not found")

// Account is the credit-bearing view of a user.
type Account struct {
	ID             uint
	CreditBalance  decimal.Decimal
	TotalSpentUSDT decimal.Decimal
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Account, error)
	// IncrementCredit adds credit and spent in a single storage-side increment.
	IncrementCredit(ctx context.Context, id uint, credit, spent decimal.Decimal) error
}
