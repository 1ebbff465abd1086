// Package setting resolves payment settings with a fixed precedence:
// persisted override, then environment variable, then built-in default.
package setting

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// Source tells where a resolved value came from.
type Source string

const (
	SourceSetting Source = "setting"
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
	SourceUnset   Source = "unset"
)

// Defaults are the built-in fallbacks that are not per-key constants.
type Defaults struct {
	PollInterval time.Duration
	PollFloor    time.Duration
}

type Resolver struct {
	repo      setting.Repository
	lookupEnv func(string) (string, bool)
	defaults  Defaults
	logger    logger.Interface
}

func NewResolver(repo setting.Repository, defaults Defaults, logger logger.Interface) *Resolver {
	return &Resolver{
		repo:      repo,
		lookupEnv: os.LookupEnv,
		defaults:  defaults,
		logger:    logger,
	}
}

// Resolve returns the effective value of key and its source. A storage error
// is logged and treated as "no override".
func (r *Resolver) Resolve(ctx context.Context, key setting.Key) (string, Source) {
	if r.repo != nil {
		value, found, err := r.repo.Get(ctx, key)
		if err != nil {
			r.logger.Warnw("failed to read setting override, falling back to env",
				"key", key,
				"error", err,
			)
		} else if found && strings.TrimSpace(value) != "" {
			return value, SourceSetting
		}
	}

	if value, ok := r.lookupEnv(string(key)); ok && strings.TrimSpace(value) != "" {
		return value, SourceEnv
	}

	if value := r.builtinDefault(key); value != "" {
		return value, SourceDefault
	}
	return "", SourceUnset
}

func (r *Resolver) Get(ctx context.Context, key setting.Key) string {
	v, _ := r.Resolve(ctx, key)
	return strings.TrimSpace(v)
}

func (r *Resolver) builtinDefault(key setting.Key) string {
	switch key {
	case setting.KeyTronAddresses:
		return vo.ChainTRC20.DefaultPoolAddress()
	case setting.KeyBscAddresses:
		return vo.ChainBSC.DefaultPoolAddress()
	case setting.KeyPollIntervalMs:
		return cast.ToString(r.defaults.PollInterval.Milliseconds())
	default:
		return ""
	}
}

// PoolKey maps a chain to the setting holding its address pool.
func PoolKey(chain vo.Chain) (setting.Key, bool) {
	switch chain {
	case vo.ChainTRC20:
		return setting.KeyTronAddresses, true
	case vo.ChainBSC:
		return setting.KeyBscAddresses, true
	default:
		return "", false
	}
}

// Addresses returns the receiving address pool for chain, in configured order.
func (r *Resolver) Addresses(ctx context.Context, chain vo.Chain) []string {
	key, ok := PoolKey(chain)
	if !ok {
		return nil
	}
	parts := SplitList(r.Get(ctx, key))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, chain.CanonicalAddress(p))
	}
	return out
}

// TronAPIKeys returns the distinct non-empty TronGrid keys in rotation order.
func (r *Resolver) TronAPIKeys(ctx context.Context) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, k := range []setting.Key{setting.KeyTronGridAPIKey, setting.KeyTronProAPIKey, setting.KeyTronScanAPIKey} {
		v := r.Get(ctx, k)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		keys = append(keys, v)
	}
	return keys
}

func (r *Resolver) BscScanAPIKey(ctx context.Context) string {
	return r.Get(ctx, setting.KeyBscScanAPIKey)
}

// NotifyTarget returns the webhook URL and signing secret. An empty URL disables notification.
func (r *Resolver) NotifyTarget(ctx context.Context) (url, secret string) {
	return r.Get(ctx, setting.KeyNotifyURL), r.Get(ctx, setting.KeyNotifySecret)
}

// PollInterval returns the configured interval, never below the floor.
// Unparseable or non-positive values fall back to the default.
func (r *Resolver) PollInterval(ctx context.Context) time.Duration {
	interval := r.defaults.PollInterval
	if ms, err := cast.ToInt64E(r.Get(ctx, setting.KeyPollIntervalMs)); err == nil && ms > 0 {
		interval = time.Duration(ms) * time.Millisecond
	}
	if interval < r.defaults.PollFloor {
		interval = r.defaults.PollFloor
	}
	return interval
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
