package blockchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

// Router routes transfer lookups to the chain-specific explorer client.
type Router struct {
	mu      sync.RWMutex // Protects sources for concurrent access
	sources map[vo.Chain]chainwatch.TransferSource
}

func NewRouter() *Router {
	return &Router{sources: make(map[vo.Chain]chainwatch.TransferSource)}
}

var _ chainwatch.TransferSource = (*Router)(nil)

// Register sets or replaces the source used for chain.
func (r *Router) Register(chain vo.Chain, source chainwatch.TransferSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[chain] = source
}

func (r *Router) RecentTransfers(ctx context.Context, chain vo.Chain, address string) ([]chainwatch.Transfer, error) {
	r.mu.RLock()
	source := r.sources[chain]
	r.mu.RUnlock()

	if source == nil {
		return nil, fmt.Errorf("no explorer client configured for chain %s", chain)
	}
	return source.RecentTransfers(ctx, chain, address)
}
