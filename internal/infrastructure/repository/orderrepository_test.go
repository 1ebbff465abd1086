package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/db"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
)

const (
	tronAddr = "TRX7JwqbKGQQXrHqVeQqSKsua8d2VPiX9d"
	bscAddr  = "0x742d35cc6634c0532925a3b8d4c9db96590b4165"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T, orderNo, address string, chain vo.Chain, amount string, createdAt time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(orderNo, 7, 3, chain, address,
		decimal.RequireFromString(amount), decimal.RequireFromString("100"), createdAt, 30*time.Minute)
	require.NoError(t, err)
	return o
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, repo.Create(ctx, o))
	assert.NotZero(t, o.ID())

	found, err := repo.GetByOrderNo(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID(), found.ID())
	assert.Equal(t, "10.37", found.AmountDue().StringFixed(2))
	assert.Equal(t, "100", found.CreditGrant().String())
	assert.Equal(t, vo.OrderStatusPending, found.Status())
	assert.True(t, found.ExpiresAt().Equal(baseTime.Add(30*time.Minute)))

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	_, err = repo.GetByOrderNo(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_LiveAmountIsUnique(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)))

	err := repo.Create(ctx, newTestOrder(t, "ORD-2", tronAddr, vo.ChainTRC20, "10.37", baseTime))
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateError(err))

	// The same amount on another chain or address is fine.
	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-3", bscAddr, vo.ChainBSC, "10.37", baseTime)))

	// Degraded orders take no live slot.
	degraded := newTestOrder(t, "ORD-4", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	degraded.MarkDegraded()
	require.NoError(t, repo.Create(ctx, degraded))
}

func TestOrderRepository_TerminalOrderFreesAmount(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	first := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, repo.Create(ctx, first))

	ok, err := repo.TransitionToExpired(ctx, first.ID(), baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-2", tronAddr, vo.ChainTRC20, "10.37", baseTime.Add(time.Minute))))
}

func TestOrderRepository_FindLiveByAddressAndAmount(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", bscAddr, vo.ChainBSC, "20.05", baseTime)
	require.NoError(t, repo.Create(ctx, o))
	now := baseTime.Add(5 * time.Minute)

	found, err := repo.FindLiveByAddressAndAmount(ctx, "0x742D35CC6634C0532925A3B8D4C9DB96590B4165", vo.ChainBSC, decimal.RequireFromString("20.05"), now)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, o.ID(), found.ID())

	tests := []struct {
		name    string
		address string
		chain   vo.Chain
		amount  string
		now     time.Time
	}{
		{"other amount", bscAddr, vo.ChainBSC, "20.06", now},
		{"other chain", bscAddr, vo.ChainTRC20, "20.05", now},
		{"other address", "0x0000000000000000000000000000000000000001", vo.ChainBSC, "20.05", now},
		{"after expiry", bscAddr, vo.ChainBSC, "20.05", baseTime.Add(31 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindLiveByAddressAndAmount(ctx, tt.address, tt.chain, decimal.RequireFromString(tt.amount), tt.now)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestOrderRepository_ListLiveAmounts(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	a := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	b := newTestOrder(t, "ORD-2", tronAddr, vo.ChainTRC20, "10.55", baseTime)
	c := newTestOrder(t, "ORD-3", tronAddr, vo.ChainTRC20, "10.80", baseTime)
	for _, o := range []*order.Order{a, b, c} {
		require.NoError(t, repo.Create(ctx, o))
	}
	ok, err := repo.TransitionToFailed(ctx, c.ID(), "operator", baseTime)
	require.NoError(t, err)
	require.True(t, ok)

	amounts, err := repo.ListLiveAmounts(ctx, tronAddr, vo.ChainTRC20, baseTime.Add(time.Minute))
	require.NoError(t, err)

	var got []string
	for _, amt := range amounts {
		got = append(got, amt.StringFixed(2))
	}
	assert.ElementsMatch(t, []string{"10.37", "10.55"}, got)
}

func TestOrderRepository_TransitionToCredited(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, repo.Create(ctx, o))

	receipt := order.PaymentReceipt{
		AmountPaid:  decimal.RequireFromString("10.37"),
		TxHash:      "tx-1",
		FromAddress: "TSender",
		PaidAt:      baseTime.Add(2 * time.Minute),
	}
	ok, err := repo.TransitionToCredited(ctx, o.ID(), receipt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionToCredited(ctx, o.ID(), receipt)
	require.NoError(t, err)
	assert.False(t, ok, "second credit must lose")

	stored, err := repo.GetByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.OrderStatusCredited, stored.Status())
	assert.Equal(t, "10.37", stored.AmountPaid().StringFixed(2))
	assert.Equal(t, "tx-1", *stored.TxHash())
	assert.Equal(t, "TSender", *stored.FromAddress())
	assert.Equal(t, 1, stored.Confirmations())
	require.NotNil(t, stored.PaidAt())
	assert.True(t, stored.PaidAt().Equal(receipt.PaidAt))
}

func TestOrderRepository_CreditRespectsExpiry(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, repo.Create(ctx, o))

	late := order.PaymentReceipt{AmountPaid: o.AmountDue(), TxHash: "late", PaidAt: baseTime.Add(45 * time.Minute)}
	ok, err := repo.TransitionToCredited(ctx, o.ID(), late)
	require.NoError(t, err)
	assert.False(t, ok)

	late.Manual = true
	ok, err = repo.TransitionToCredited(ctx, o.ID(), late)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderRepository_SeenKeepsOrderLive(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, repo.Create(ctx, o))

	ok, err := repo.TransitionToSeen(ctx, o.ID(), "old-tx", baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.TransitionToSeen(ctx, o.ID(), "old-tx", baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.OrderStatusSeen, stored.Status())
	assert.Equal(t, "old-tx", stored.Metadata()["seen_tx_hash"])

	found, err := repo.FindLiveByAddressAndAmount(ctx, tronAddr, vo.ChainTRC20, o.AmountDue(), baseTime.Add(2*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, found)

	err = repo.Create(ctx, newTestOrder(t, "ORD-2", tronAddr, vo.ChainTRC20, "10.37", baseTime))
	assert.True(t, apperrors.IsDuplicateError(err), "seen order still holds its amount")
}

func TestOrderRepository_ExpireOverdue(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	stale := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	fresh := newTestOrder(t, "ORD-2", tronAddr, vo.ChainTRC20, "10.38", baseTime.Add(20*time.Minute))
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.ExpireOverdue(ctx, baseTime.Add(35*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, stale.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.OrderStatusExpired, got.Status())

	got, err = repo.GetByID(ctx, fresh.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.OrderStatusPending, got.Status())
}

func TestOrderRepository_List(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)))
	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-2", bscAddr, vo.ChainBSC, "25.12", baseTime.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestOrder(t, "ORD-3", tronAddr, vo.ChainTRC20, "50.01", baseTime.Add(48*time.Hour))))

	all, total, err := repo.List(ctx, order.ListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 2)
	assert.Equal(t, "ORD-3", all[0].OrderNo())

	chain := vo.ChainTRC20
	minAmount := decimal.RequireFromString("20")
	got, total, err := repo.List(ctx, order.ListFilter{Chain: &chain, MinAmount: &minAmount})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "ORD-3", got[0].OrderNo())

	from := baseTime.Add(-time.Minute)
	to := baseTime.Add(2 * time.Hour)
	_, total, err = repo.List(ctx, order.ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestOrderRepository_CreditInsideTransaction(t *testing.T) {
	gdb := setupTestDB(t)
	orders := NewOrderRepository(gdb, testLogger())
	users := NewUserCreditRepository(gdb, testLogger())
	txMgr := db.NewTransactionManager(gdb)
	ctx := context.Background()

	require.NoError(t, gdb.Exec("INSERT INTO users (id, credit_balance, total_spent_usdt, created_at, updated_at) VALUES (7, 0, 0, ?, ?)", baseTime, baseTime).Error)
	o := newTestOrder(t, "ORD-1", tronAddr, vo.ChainTRC20, "10.37", baseTime)
	require.NoError(t, orders.Create(ctx, o))

	err := txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := orders.TransitionToCredited(ctx, o.ID(), order.PaymentReceipt{AmountPaid: o.AmountDue(), PaidAt: baseTime})
		require.NoError(t, err)
		require.True(t, ok)
		return users.IncrementCredit(ctx, 99, o.CreditGrant(), o.AmountDue())
	})
	require.Error(t, err)

	stored, err := orders.GetByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.OrderStatusPending, stored.Status(), "credit rolls back with the failed increment")
}
