package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/usdtpay/internal/domain/plan"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/usdtpay/internal/shared/db"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByID(ctx context.Context, id uint) (*plan.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, plan.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan.Plan{
		ID:          model.ID,
		Name:        model.Name,
		PriceUSDT:   model.PriceUSDT,
		CreditGrant: model.CreditGrant,
		Active:      model.Active,
	}, nil
}
