package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orris-inc/usdtpay/internal/domain/user"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/usdtpay/internal/shared/db"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// UserCreditRepository reads and increments user credit balances.
type UserCreditRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUserCreditRepository(db *gorm.DB, logger logger.Interface) *UserCreditRepository {
	return &UserCreditRepository{db: db, logger: logger}
}

func (r *UserCreditRepository) GetByID(ctx context.Context, id uint) (*user.Account, error) {
	var model models.UserModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user.Account{
		ID:             model.ID,
		CreditBalance:  model.CreditBalance,
		TotalSpentUSDT: model.TotalSpentUSDT,
	}, nil
}

// IncrementCredit adds to both balances with a single UPDATE so concurrent
// credits for the same user do not overwrite each other.
func (r *UserCreditRepository) IncrementCredit(ctx context.Context, id uint, credit, spent decimal.Decimal) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"credit_balance":   gorm.Expr("credit_balance + ?", credit),
			"total_spent_usdt": gorm.Expr("total_spent_usdt + ?", spent),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to increment user credit", "user_id", id, "error", result.Error)
		return fmt.Errorf("failed to increment user credit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
