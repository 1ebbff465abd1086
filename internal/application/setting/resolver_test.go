package setting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

type mockSettingRepository struct {
	values map[setting.Key]string
	err    error
}

func (m *mockSettingRepository) Get(ctx context.Context, key setting.Key) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingRepository) GetAll(ctx context.Context) ([]*setting.Setting, error) {
	return nil, nil
}

func (m *mockSettingRepository) Upsert(ctx context.Context, s *setting.Setting) error {
	return nil
}

func (m *mockSettingRepository) Delete(ctx context.Context, key setting.Key) error {
	return nil
}

func newTestResolver(overrides map[setting.Key]string, env map[string]string) *Resolver {
	r := NewResolver(&mockSettingRepository{values: overrides}, Defaults{
		PollInterval: 10 * time.Second,
		PollFloor:    5 * time.Second,
	}, logger.NewNopLogger())
	r.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return r
}

func TestResolver_Precedence(t *testing.T) {
	ctx := context.Background()

	r := newTestResolver(
		map[setting.Key]string{setting.KeyNotifyURL: "https://override.example/hook"},
		map[string]string{"PAYMENT_NOTIFY_URL": "https://env.example/hook", "PAYMENT_NOTIFY_SECRET": "s3cret"},
	)

	v, src := r.Resolve(ctx, setting.KeyNotifyURL)
	assert.Equal(t, "https://override.example/hook", v)
	assert.Equal(t, SourceSetting, src)

	v, src = r.Resolve(ctx, setting.KeyNotifySecret)
	assert.Equal(t, "s3cret", v)
	assert.Equal(t, SourceEnv, src)

	v, src = r.Resolve(ctx, setting.KeyTronAddresses)
	assert.Equal(t, vo.ChainTRC20.DefaultPoolAddress(), v)
	assert.Equal(t, SourceDefault, src)

	_, src = r.Resolve(ctx, setting.KeyBscScanAPIKey)
	assert.Equal(t, SourceUnset, src)
}

func TestResolver_BlankOverrideFallsThrough(t *testing.T) {
	r := newTestResolver(
		map[setting.Key]string{setting.KeyBscScanAPIKey: "  "},
		map[string]string{"BSCSCAN_API_KEY": "envkey"},
	)
	assert.Equal(t, "envkey", r.BscScanAPIKey(context.Background()))
}

func TestResolver_StorageErrorFallsBackToEnv(t *testing.T) {
	r := newTestResolver(nil, map[string]string{"BSCSCAN_API_KEY": "envkey"})
	r.repo = &mockSettingRepository{err: errors.New("db down")}

	assert.Equal(t, "envkey", r.BscScanAPIKey(context.Background()))
}

func TestResolver_Addresses(t *testing.T) {
	r := newTestResolver(map[setting.Key]string{
		setting.KeyBscAddresses: " 0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA, ,0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb ",
	}, nil)

	assert.Equal(t, []string{
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}, r.Addresses(context.Background(), vo.ChainBSC))
	assert.Equal(t, []string{vo.ChainTRC20.DefaultPoolAddress()}, r.Addresses(context.Background(), vo.ChainTRC20))
	assert.Nil(t, r.Addresses(context.Background(), vo.Chain("ETH")))
}

func TestResolver_TronAPIKeys(t *testing.T) {
	r := newTestResolver(
		map[setting.Key]string{setting.KeyTronGridAPIKey: "k1"},
		map[string]string{"TRON_PRO_API_KEY": "k2", "TRONSCAN_API_KEY": "k1"},
	)
	assert.Equal(t, []string{"k1", "k2"}, r.TronAPIKeys(context.Background()))

	assert.Empty(t, newTestResolver(nil, nil).TronAPIKeys(context.Background()))
}

func TestResolver_PollInterval(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default when unset", "", 10 * time.Second},
		{"configured", "15000", 15 * time.Second},
		{"floored", "1000", 5 * time.Second},
		{"garbage", "fast", 10 * time.Second},
		{"negative", "-5", 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			if tt.value != "" {
				env["PAY_POLL_INTERVAL_MS"] = tt.value
			}
			r := newTestResolver(nil, env)
			assert.Equal(t, tt.want, r.PollInterval(context.Background()))
		})
	}
}
