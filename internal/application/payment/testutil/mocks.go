// Package testutil provides in-memory fakes for testing the payment application layer.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/plan"
	"github.com/orris-inc/usdtpay/internal/domain/user"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// NewMockLogger returns a logger that discards everything.
func NewMockLogger() logger.Interface {
	return logger.NewNopLogger()
}

// MockOrderRepository keeps orders in memory and applies the same
// compare-and-swap rules as the SQL repository. Callers always receive copies.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uint]*order.Order
	nextID uint

	// CreateErr, when set, is returned by the next Create calls and decremented.
	CreateErr      error
	CreateErrTimes int
	FindErr        error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uint]*order.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil && m.CreateErrTimes > 0 {
		m.CreateErrTimes--
		return m.CreateErr
	}

	m.nextID++
	o.SetID(m.nextID)
	m.orders[o.ID()] = CloneOrder(o)
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return CloneOrder(o), nil
}

func (m *MockOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.OrderNo() == orderNo {
			return CloneOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*order.Order
	for _, o := range m.sorted() {
		if filter.UserID != nil && o.UserID() != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status() != *filter.Status {
			continue
		}
		if filter.Chain != nil && o.Chain() != *filter.Chain {
			continue
		}
		if filter.MinAmount != nil && o.AmountDue().LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && o.AmountDue().GreaterThan(*filter.MaxAmount) {
			continue
		}
		matched = append(matched, CloneOrder(o))
	}

	total := int64(len(matched))
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *MockOrderRepository) FindLiveByAddressAndAmount(ctx context.Context, address string, chain vo.Chain, amount decimal.Decimal, now time.Time) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, o := range m.sorted() {
		if m.isLive(o, address, chain, now) && o.AmountDue().Equal(amount) {
			return CloneOrder(o), nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepository) ListLiveAmounts(ctx context.Context, address string, chain vo.Chain, now time.Time) ([]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []decimal.Decimal
	for _, o := range m.orders {
		if m.isLive(o, address, chain, now) {
			out = append(out, o.AmountDue())
		}
	}
	return out, nil
}

func (m *MockOrderRepository) TransitionToCredited(ctx context.Context, id uint, receipt order.PaymentReceipt) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if err := o.Credit(receipt); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MockOrderRepository) TransitionToSeen(ctx context.Context, id uint, txHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok || o.Status() != vo.OrderStatusPending {
		return false, nil
	}
	return o.MarkSeen(txHash, now) == nil, nil
}

func (m *MockOrderRepository) TransitionToExpired(ctx context.Context, id uint, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	return o.Expire(now) == nil, nil
}

func (m *MockOrderRepository) TransitionToFailed(ctx context.Context, id uint, note string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	return o.Fail(note, now) == nil, nil
}

func (m *MockOrderRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, o := range m.orders {
		if o.IsOverdue(now) && o.Expire(now) == nil {
			n++
		}
	}
	return n, nil
}

// Stored returns a copy of the stored order, or nil.
func (m *MockOrderRepository) Stored(id uint) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.orders[id]; ok {
		return CloneOrder(o)
	}
	return nil
}

// Put stores o as is, assigning an ID when it has none.
func (m *MockOrderRepository) Put(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.ID() == 0 {
		m.nextID++
		o.SetID(m.nextID)
	} else if o.ID() > m.nextID {
		m.nextID = o.ID()
	}
	m.orders[o.ID()] = CloneOrder(o)
}

func (m *MockOrderRepository) isLive(o *order.Order, address string, chain vo.Chain, now time.Time) bool {
	return o.Status().IsLive() &&
		o.Chain() == chain &&
		chain.SameAddress(o.ToAddress(), address) &&
		o.ExpiresAt().After(now)
}

func (m *MockOrderRepository) sorted() []*order.Order {
	out := make([]*order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// CloneOrder deep-copies o.
func CloneOrder(o *order.Order) *order.Order {
	meta := make(map[string]interface{}, len(o.Metadata()))
	for k, v := range o.Metadata() {
		meta[k] = v
	}
	return order.ReconstructOrder(
		o.ID(), o.OrderNo(), o.UserID(), o.PlanID(), o.Chain(), o.ToAddress(),
		o.AmountDue(), o.CreditGrant(), o.Status(),
		copyPtr(o.AmountPaid()), copyPtr(o.FromAddress()), copyPtr(o.TxHash()),
		o.Confirmations(), o.Degraded(), meta,
		o.CreatedAt(), o.ExpiresAt(), copyPtr(o.PaidAt()), o.UpdatedAt(),
	)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MockUserRepository holds accounts in memory.
type MockUserRepository struct {
	mu       sync.Mutex
	accounts map[uint]*user.Account

	IncrementErr error
}

func NewMockUserRepository(ids ...uint) *MockUserRepository {
	m := &MockUserRepository{accounts: make(map[uint]*user.Account)}
	for _, id := range ids {
		m.accounts[id] = &user.Account{ID: id}
	}
	return m
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*user.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockUserRepository) IncrementCredit(ctx context.Context, id uint, credit, spent decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IncrementErr != nil {
		return m.IncrementErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return user.ErrUserNotFound
	}
	a.CreditBalance = a.CreditBalance.Add(credit)
	a.TotalSpentUSDT = a.TotalSpentUSDT.Add(spent)
	return nil
}

// MockPlanRepository holds plans in memory.
type MockPlanRepository struct {
	plans map[uint]*plan.Plan
}

func NewMockPlanRepository(plans ...*plan.Plan) *MockPlanRepository {
	m := &MockPlanRepository{plans: make(map[uint]*plan.Plan)}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uint) (*plan.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return p, nil
}

// MockTransactor runs fn directly. Rollback is not simulated.
type MockTransactor struct{}

func (MockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockNotifier records every order it is asked to announce.
type MockNotifier struct {
	mu    sync.Mutex
	calls []string
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyPaymentConfirmed(ctx context.Context, o *order.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, o.OrderNo())
	return true, nil
}

// Calls returns the order numbers notified so far.
func (m *MockNotifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockAddressChecker delegates to CheckFunc.
type MockAddressChecker struct {
	CheckFunc func(ctx context.Context, chain vo.Chain, address string) error
}

func (m *MockAddressChecker) CheckAddress(ctx context.Context, chain vo.Chain, address string) error {
	if m.CheckFunc == nil {
		return nil
	}
	return m.CheckFunc(ctx, chain, address)
}
