// Package plan exposes the priced plans orders are created against.
package plan

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrPlanNotFound = errors.New("plan not found")

type Plan struct {
	ID          uint
	Name        string
	PriceUSDT   decimal.Decimal
	CreditGrant decimal.Decimal
	Active      bool
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Plan, error)
}
