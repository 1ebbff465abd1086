package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/goroutine"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const defaultPollConcurrency = 5

// AddressPool returns the receiving addresses to poll for a chain.
type AddressPool interface {
	Addresses(ctx context.Context, chain vo.Chain) []string
}

// IntervalSource returns the current poll interval. It is consulted before
// every tick so interval changes apply without a restart.
type IntervalSource interface {
	PollInterval(ctx context.Context) time.Duration
}

// TransferMatcher matches one observed transfer against live orders.
type TransferMatcher interface {
	Match(ctx context.Context, t chainwatch.Transfer) (*paymentUsecases.MatchResult, error)
}

// PaymentPoller periodically fetches recent USDT transfers for every pool
// address on one chain and feeds them to the matcher.
// - Runs immediately on start, then once per interval
// - Addresses are fetched concurrently, bounded by concurrency
// - A failed fetch only skips that address for this cycle
type PaymentPoller struct {
	chain       vo.Chain
	source      chainwatch.TransferSource
	matcher     TransferMatcher
	pool        AddressPool
	interval    IntervalSource
	concurrency int
	logger      logger.Interface
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	running     bool
	mu          sync.RWMutex

	// noKeyWarned suppresses repeated missing-key warnings until a fetch succeeds.
	noKeyWarned atomic.Bool
}

// NewPaymentPoller creates a poller for chain
func NewPaymentPoller(
	chain vo.Chain,
	source chainwatch.TransferSource,
	matcher TransferMatcher,
	pool AddressPool,
	interval IntervalSource,
	concurrency int,
	logger logger.Interface,
) *PaymentPoller {
	if concurrency <= 0 {
		concurrency = defaultPollConcurrency
	}
	return &PaymentPoller{
		chain:       chain,
		source:      source,
		matcher:     matcher,
		pool:        pool,
		interval:    interval,
		concurrency: concurrency,
		logger:      logger.With("chain", chain.String()),
		stopChan:    make(chan struct{}),
	}
}

func (p *PaymentPoller) Chain() vo.Chain {
	return p.chain
}

// Start starts the poll loop
func (p *PaymentPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Infow("starting payment poller", "interval", p.interval.PollInterval(ctx))

	goroutine.Tracked(&p.wg, p.logger, "payment-poller-"+p.chain.String(), func() {
		p.runPollLoop(ctx)
	})
}

// Stop stops the poller gracefully
func (p *PaymentPoller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()

		p.logger.Infow("stopping payment poller")
		close(p.stopChan)
		p.wg.Wait()
		p.logger.Infow("payment poller stopped")
	})
}

// IsRunning returns whether the poller is running
func (p *PaymentPoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *PaymentPoller) runPollLoop(ctx context.Context) {
	// Run immediately on startup
	p.PollOnce(ctx)

	timer := time.NewTimer(p.interval.PollInterval(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("payment poller stopped due to context cancellation")
			return
		case <-p.stopChan:
			return
		case <-timer.C:
			p.PollOnce(ctx)
			timer.Reset(p.interval.PollInterval(ctx))
		}
	}
}

// PollOnce runs a single poll cycle over the chain's address pool.
func (p *PaymentPoller) PollOnce(ctx context.Context) {
	addresses := p.pool.Addresses(ctx, p.chain)
	if len(addresses) == 0 {
		p.logger.Debugw("no receiving addresses configured, skipping poll")
		return
	}

	startTime := time.Now()
	var credited atomic.Int64

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, address := range addresses {
		address := address
		g.Go(func() error {
			n, _ := p.checkAddress(ctx, address)
			credited.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	if n := credited.Load(); n > 0 {
		p.logger.Infow("payment poll cycle completed",
			"addresses", len(addresses),
			"credited", n,
			"duration", time.Since(startTime),
		)
	} else {
		p.logger.Debugw("payment poll cycle completed",
			"addresses", len(addresses),
			"duration", time.Since(startTime),
		)
	}
}

// CheckAddress fetches and matches transfers for one address immediately.
func (p *PaymentPoller) CheckAddress(ctx context.Context, address string) error {
	_, err := p.checkAddress(ctx, address)
	return err
}

// checkAddress returns the number of orders credited from address's transfers.
func (p *PaymentPoller) checkAddress(ctx context.Context, address string) (int, error) {
	transfers, err := p.source.RecentTransfers(ctx, p.chain, address)
	if err != nil {
		if errors.Is(err, chainwatch.ErrNoAPIKey) {
			if p.noKeyWarned.CompareAndSwap(false, true) {
				p.logger.Warnw("explorer API key not configured, polling is a no-op until one is set")
			}
			return 0, err
		}
		p.logger.Warnw("failed to fetch transfers",
			"address", address,
			"error", err,
		)
		return 0, err
	}
	p.noKeyWarned.Store(false)

	credited := 0
	for _, t := range transfers {
		result, err := p.matcher.Match(ctx, t)
		if err != nil {
			p.logger.Errorw("failed to match transfer",
				"address", address,
				"tx_hash", t.TxHash,
				"amount", t.Amount.StringFixed(2),
				"error", err,
			)
			continue
		}
		if result != nil && result.Credited {
			credited++
		}
	}
	return credited, nil
}
