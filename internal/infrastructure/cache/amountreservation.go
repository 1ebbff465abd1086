package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/usdtpay/internal/application/payment/fingerprint"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

const (
	// amountReservationPrefix is the prefix for allocation claims
	amountReservationPrefix = "usdtpay:alloc:"
	// DefaultReservationTTL covers the gap between allocation and the order insert
	DefaultReservationTTL = 15 * time.Second
)

// AmountReservationStore claims (chain, address, amount) triples for the
// short window between picking a fingerprint and persisting the order.
type AmountReservationStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ fingerprint.Reserver = (*AmountReservationStore)(nil)

// NewAmountReservationStore creates a new AmountReservationStore instance
func NewAmountReservationStore(client *redis.Client, ttl time.Duration) *AmountReservationStore {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &AmountReservationStore{client: client, ttl: ttl}
}

// buildKey builds the Redis key for a claim
// Format: usdtpay:alloc:{chain}:{address}:{amount}
func (s *AmountReservationStore) buildKey(chain vo.Chain, address string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s%s:%s:%s", amountReservationPrefix, chain, chain.CanonicalAddress(address), amount.StringFixed(2))
}

// Reserve returns false when another allocation holds the claim.
func (s *AmountReservationStore) Reserve(ctx context.Context, chain vo.Chain, address string, amount decimal.Decimal) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.buildKey(chain, address, amount), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve amount: %w", err)
	}
	return ok, nil
}

// Release drops a claim before its TTL runs out.
func (s *AmountReservationStore) Release(ctx context.Context, chain vo.Chain, address string, amount decimal.Decimal) error {
	if err := s.client.Del(ctx, s.buildKey(chain, address, amount)).Err(); err != nil {
		return fmt.Errorf("failed to release amount reservation: %w", err)
	}
	return nil
}
