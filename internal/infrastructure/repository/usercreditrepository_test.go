package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/usdtpay/internal/domain/plan"
	"github.com/orris-inc/usdtpay/internal/domain/user"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
)

func TestUserCreditRepository_IncrementCredit(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserCreditRepository(gdb, testLogger())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.UserModel{ID: 7, CreatedAt: baseTime, UpdatedAt: baseTime}).Error)

	require.NoError(t, repo.IncrementCredit(ctx, 7, decimal.RequireFromString("100"), decimal.RequireFromString("10.37")))
	require.NoError(t, repo.IncrementCredit(ctx, 7, decimal.RequireFromString("50"), decimal.RequireFromString("5.12")))

	acct, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "150.00", acct.CreditBalance.StringFixed(2))
	assert.Equal(t, "15.49", acct.TotalSpentUSDT.StringFixed(2))

	err = repo.IncrementCredit(ctx, 8, decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = repo.GetByID(ctx, 8)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestPlanRepository_GetByID(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewPlanRepository(gdb)
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.PlanModel{
		ID:          1,
		Name:        "Starter",
		PriceUSDT:   decimal.RequireFromString("10"),
		CreditGrant: decimal.RequireFromString("1000"),
		Active:      true,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}).Error)

	p, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Starter", p.Name)
	assert.True(t, p.PriceUSDT.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.Active)

	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}
