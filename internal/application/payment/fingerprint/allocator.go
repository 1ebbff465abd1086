// Package fingerprint picks a receiving address and a unique cent offset for
// new orders so an on-chain amount identifies exactly one live order.
package fingerprint

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// PoolSource returns the receiving addresses configured for a chain.
type PoolSource interface {
	Addresses(ctx context.Context, chain vo.Chain) []string
}

// AmountLister returns the amounts held by live orders on an address.
type AmountLister interface {
	ListLiveAmounts(ctx context.Context, address string, chain vo.Chain, now time.Time) ([]decimal.Decimal, error)
}

// Reserver takes a short-lived claim on (chain, address, amount). It returns
// false when another allocation already holds the claim.
type Reserver interface {
	Reserve(ctx context.Context, chain vo.Chain, address string, amount decimal.Decimal) (bool, error)
}

// NopReserver accepts every claim. Used when no redis is configured.
type NopReserver struct{}

func (NopReserver) Reserve(ctx context.Context, chain vo.Chain, address string, amount decimal.Decimal) (bool, error) {
	return true, nil
}

// Allocation is the outcome of Allocate.
type Allocation struct {
	Address     string
	Fingerprint int
	AmountDue   decimal.Decimal
	// Degraded is set when every fingerprint on every address was taken and
	// the amount carries no uniqueness guarantee.
	Degraded bool
}

type Allocator struct {
	pool     PoolSource
	amounts  AmountLister
	reserver Reserver
	now      func() time.Time
	logger   logger.Interface
}

func NewAllocator(pool PoolSource, amounts AmountLister, reserver Reserver, logger logger.Interface) *Allocator {
	if reserver == nil {
		reserver = NopReserver{}
	}
	return &Allocator{
		pool:     pool,
		amounts:  amounts,
		reserver: reserver,
		now:      biztime.NowUTC,
		logger:   logger,
	}
}

// Allocate walks the pool in random order and returns the first address with a
// free fingerprint. When the pool is exhausted it falls back to Degraded.
func (a *Allocator) Allocate(ctx context.Context, chain vo.Chain, base decimal.Decimal) (*Allocation, error) {
	addrs, err := a.addresses(ctx, chain, base)
	if err != nil {
		return nil, err
	}
	base = vo.RoundAmount(base)
	now := a.now()

	shuffled := make([]string, len(addrs))
	copy(shuffled, addrs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, address := range shuffled {
		live, err := a.amounts.ListLiveAmounts(ctx, address, chain, now)
		if err != nil {
			return nil, fmt.Errorf("failed to list live amounts for %s: %w", address, err)
		}

		for _, f := range FreeFingerprints(base, live) {
			amount := vo.WithFingerprint(base, f)
			ok, err := a.reserver.Reserve(ctx, chain, address, amount)
			if err != nil {
				a.logger.Warnw("amount reservation unavailable, relying on storage constraint",
					"chain", chain,
					"address", address,
					"amount", amount.StringFixed(2),
					"error", err,
				)
				ok = true
			}
			if !ok {
				continue
			}
			a.logger.Debugw("allocated payment fingerprint",
				"chain", chain,
				"address", address,
				"fingerprint", f,
				"amount_due", amount.StringFixed(2),
			)
			return &Allocation{Address: address, Fingerprint: f, AmountDue: amount}, nil
		}
	}

	a.logger.Warnw("fingerprint space exhausted on every pool address",
		"chain", chain,
		"pool_size", len(addrs),
		"base", base.StringFixed(2),
	)
	return a.Degraded(ctx, chain, base)
}

// Degraded returns the first pool address with a random fingerprint and no
// uniqueness check.
func (a *Allocator) Degraded(ctx context.Context, chain vo.Chain, base decimal.Decimal) (*Allocation, error) {
	addrs, err := a.addresses(ctx, chain, base)
	if err != nil {
		return nil, err
	}
	f := vo.RandomFingerprint()
	return &Allocation{
		Address:     addrs[0],
		Fingerprint: f,
		AmountDue:   vo.WithFingerprint(vo.RoundAmount(base), f),
		Degraded:    true,
	}, nil
}

func (a *Allocator) addresses(ctx context.Context, chain vo.Chain, base decimal.Decimal) ([]string, error) {
	if !chain.IsValid() {
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
	if !vo.RoundAmount(base).IsPositive() {
		return nil, fmt.Errorf("base price must be positive")
	}
	addrs := a.pool.Addresses(ctx, chain)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no receiving addresses configured for %s", chain)
	}
	return addrs, nil
}

// FreeFingerprints returns, in random order, every fingerprint in
// MinFingerprint..MaxFingerprint whose resulting amount does not share its cent
// offset with any of the live amounts.
func FreeFingerprints(base decimal.Decimal, live []decimal.Decimal) []int {
	used := make(map[int]struct{}, len(live))
	for _, amt := range live {
		used[vo.FingerprintOf(amt)] = struct{}{}
	}

	free := make([]int, 0, vo.MaxFingerprint)
	for f := vo.MinFingerprint; f <= vo.MaxFingerprint; f++ {
		if _, taken := used[vo.FingerprintOf(vo.WithFingerprint(base, f))]; taken {
			continue
		}
		free = append(free, f)
	}
	rand.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})
	return free
}
