package scheduler

import (
	"context"
	"fmt"
	"sync"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// PollerManager owns one PaymentPoller per chain. Chains poll independently.
type PollerManager struct {
	mu      sync.RWMutex
	pollers map[vo.Chain]*PaymentPoller
	logger  logger.Interface
}

func NewPollerManager(logger logger.Interface, pollers ...*PaymentPoller) *PollerManager {
	m := &PollerManager{
		pollers: make(map[vo.Chain]*PaymentPoller, len(pollers)),
		logger:  logger,
	}
	for _, p := range pollers {
		m.pollers[p.Chain()] = p
	}
	return m
}

func (m *PollerManager) Start(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.pollers {
		p.Start(ctx)
	}
	m.logger.Infow("payment pollers started", "chains", len(m.pollers))
}

func (m *PollerManager) Stop() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, p := range m.pollers {
		wg.Add(1)
		go func(p *PaymentPoller) {
			defer wg.Done()
			p.Stop()
		}(p)
	}
	wg.Wait()
}

// CheckAddress runs an immediate fetch-and-match for one address, outside the
// regular tick. It may overlap a running cycle for the same address.
func (m *PollerManager) CheckAddress(ctx context.Context, chain vo.Chain, address string) error {
	m.mu.RLock()
	p, ok := m.pollers[chain]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no poller configured for chain %s", chain)
	}
	return p.CheckAddress(ctx, address)
}
