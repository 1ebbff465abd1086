package blockchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const (
	tronAddr = "TRX7JwqbKGQQXrHqVeQqSKsua8d2VPiX9d"
	bscAddr  = "0x742d35cc6634c0532925a3b8d4c9db96590b4165"
)

type staticKeys struct {
	tron []string
	bsc  string
}

func (k staticKeys) TronAPIKeys(ctx context.Context) []string {
	return k.tron
}

func (k staticKeys) BscScanAPIKey(ctx context.Context) string {
	return k.bsc
}

func TestTronGridClient_RecentTransfers(t *testing.T) {
	var gotPath, gotKey, gotContract string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("TRON-PRO-API-KEY")
		gotContract = r.URL.Query().Get("contract_address")
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"transaction_id": "tx1", "block_timestamp": 1772366400000, "from": "TSender", "to": "` + tronAddr + `", "value": "10370000", "token_info": {"address": "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", "decimals": 6}},
				{"transaction_id": "tx2", "block_timestamp": 1772366400000, "from": "` + tronAddr + `", "to": "TOther", "value": "5000000", "token_info": {"decimals": 6}},
				{"transaction_id": "tx3", "block_timestamp": 1772366400000, "from": "TSender", "to": "` + tronAddr + `", "value": "not-a-number", "token_info": {"decimals": 6}},
				{"transaction_id": "tx4", "block_timestamp": 0, "from": "TSender", "to": "` + tronAddr + `", "value": "20054999"}
			]
		}`))
	}))
	defer server.Close()

	c := NewTronGridClient(server.URL, time.Second, staticKeys{tron: []string{"key-a"}}, logger.NewNopLogger())
	transfers, err := c.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
	require.NoError(t, err)

	assert.Equal(t, "/v1/accounts/"+tronAddr+"/transactions/trc20", gotPath)
	assert.Equal(t, "key-a", gotKey)
	assert.Equal(t, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", gotContract)

	require.Len(t, transfers, 2)
	assert.Equal(t, "tx1", transfers[0].TxHash)
	assert.Equal(t, "10.37", transfers[0].Amount.StringFixed(2))
	assert.Equal(t, time.UnixMilli(1772366400000).UTC(), transfers[0].Timestamp)
	assert.Equal(t, "20.05", transfers[1].Amount.StringFixed(2), "decimals default to 6")
	assert.True(t, transfers[1].Timestamp.IsZero())
}

func TestTronGridClient_RotatesKeys(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("TRON-PRO-API-KEY"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer server.Close()

	c := NewTronGridClient(server.URL, time.Second, staticKeys{tron: []string{"k1", "k2"}}, logger.NewNopLogger())
	for i := 0; i < 4; i++ {
		_, err := c.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"k1", "k2", "k1", "k2"}, keys)
}

func TestTronGridClient_Errors(t *testing.T) {
	c := NewTronGridClient("http://127.0.0.1:0", time.Second, staticKeys{}, logger.NewNopLogger())
	_, err := c.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
	assert.True(t, errors.Is(err, chainwatch.ErrNoAPIKey))

	_, err = c.RecentTransfers(context.Background(), vo.ChainBSC, bscAddr)
	assert.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"Error": "rate limited"}`))
	}))
	defer server.Close()

	c = NewTronGridClient(server.URL, time.Second, staticKeys{tron: []string{"k"}}, logger.NewNopLogger())
	_, err = c.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	unsuccessful := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "invalid key"}`))
	}))
	defer unsuccessful.Close()

	c = NewTronGridClient(unsuccessful.URL, time.Second, staticKeys{tron: []string{"k"}}, logger.NewNopLogger())
	_, err = c.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestBscScanClient_RecentTransfers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "tokentx", q.Get("action"))
		assert.Equal(t, "0x55d398326f99059fF775485246999027B3197955", q.Get("contractaddress"))
		assert.Equal(t, bscAddr, q.Get("address"))
		assert.Equal(t, "desc", q.Get("sort"))
		assert.Equal(t, "bsc-key", q.Get("apikey"))
		_, _ = w.Write([]byte(`{"status": "1", "message": "OK", "result": [
			{"hash": "0xaa", "timeStamp": "1772366400", "from": "0xsender", "to": "0x742D35CC6634C0532925A3B8D4C9DB96590B4165", "value": "20050000000000000000", "tokenDecimal": "18"},
			{"hash": "0xbb", "timeStamp": "1772366400", "from": "` + bscAddr + `", "to": "0xother", "value": "1000000000000000000", "tokenDecimal": "18"},
			{"hash": "0xcc", "timeStamp": "", "from": "0xsender", "to": "` + bscAddr + `", "value": "10374999999999999999", "tokenDecimal": ""}
		]}`))
	}))
	defer server.Close()

	c := NewBscScanClient(server.URL, time.Second, staticKeys{bsc: "bsc-key"}, logger.NewNopLogger())
	transfers, err := c.RecentTransfers(context.Background(), vo.ChainBSC, "0x742d35Cc6634C0532925a3b8D4C9db96590b4165")
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	assert.Equal(t, "0xaa", transfers[0].TxHash)
	assert.Equal(t, "20.05", transfers[0].Amount.StringFixed(2))
	assert.Equal(t, time.Unix(1772366400, 0).UTC(), transfers[0].Timestamp)
	assert.Equal(t, "10.37", transfers[1].Amount.StringFixed(2))
	assert.True(t, transfers[1].Timestamp.IsZero())
}

func TestBscScanClient_StatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"no transactions", `{"status": "0", "message": "No transactions found", "result": []}`, ""},
		{"rate limited", `{"status": "0", "message": "NOTOK", "result": "Max rate limit reached"}`, "Max rate limit reached"},
		{"other error", `{"status": "0", "message": "Invalid address", "result": []}`, "Invalid address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewBscScanClient(server.URL, time.Second, staticKeys{bsc: "k"}, logger.NewNopLogger())
			transfers, err := c.RecentTransfers(context.Background(), vo.ChainBSC, bscAddr)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Empty(t, transfers)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	c := NewBscScanClient("http://127.0.0.1:0", time.Second, staticKeys{}, logger.NewNopLogger())
	_, err := c.RecentTransfers(context.Background(), vo.ChainBSC, bscAddr)
	assert.ErrorIs(t, err, chainwatch.ErrNoAPIKey)
}

type stubSource struct {
	calls int
}

func (s *stubSource) RecentTransfers(ctx context.Context, chain vo.Chain, address string) ([]chainwatch.Transfer, error) {
	s.calls++
	return []chainwatch.Transfer{{Chain: chain, To: address}}, nil
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	tron := &stubSource{}
	r.Register(vo.ChainTRC20, tron)

	got, err := r.RecentTransfers(context.Background(), vo.ChainTRC20, tronAddr)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, tron.calls)

	_, err = r.RecentTransfers(context.Background(), vo.ChainBSC, bscAddr)
	assert.Error(t, err)
}
