package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/usdtpay/internal/domain/order"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

type staticTarget struct {
	url    string
	secret string
}

func (s staticTarget) NotifyTarget(ctx context.Context) (string, string) {
	return s.url, s.secret
}

var fastRetry = WebhookConfig{
	Timeout:      time.Second,
	Retries:      2,
	RetryWait:    5 * time.Millisecond,
	RetryMaxWait: 10 * time.Millisecond,
}

func creditedOrder(t *testing.T) *order.Order {
	t.Helper()
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o, err := order.NewOrder("ORD1772359200000ABCDEF", 7, 3, vo.ChainTRC20, "TRX7JwqbKGQQXrHqVeQqSKsua8d2VPiX9d",
		decimal.RequireFromString("10.37"), decimal.RequireFromString("1000"), createdAt, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, o.Credit(order.PaymentReceipt{
		AmountPaid:  decimal.RequireFromString("10.37"),
		TxHash:      "abc123",
		FromAddress: "TSender",
		PaidAt:      createdAt.Add(5 * time.Minute),
	}))
	return o
}

func TestWebhookNotifier_SignsExactBody(t *testing.T) {
	var gotBody []byte
	var gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(staticTarget{url: srv.URL, secret: "s3cret"}, fastRetry, logger.NewNopLogger())
	n.now = func() time.Time { return time.UnixMilli(1772359500000) }

	sent, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, Sign("s3cret", gotBody), gotSig)
	assert.Regexp(t, `^[0-9a-f]{64}$`, gotSig)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "payment.confirmed", payload["event"])
	assert.Equal(t, "ORD1772359200000ABCDEF", payload["orderNo"])
	assert.Equal(t, "credited", payload["status"])
	assert.Equal(t, "TRC20", payload["chain"])
	assert.Equal(t, "USDT", payload["token"])
	assert.Equal(t, "10.37", payload["amountDue"])
	assert.Equal(t, "10.37", payload["amountPaid"])
	assert.Equal(t, "TSender", payload["fromAddress"])
	assert.Equal(t, "abc123", payload["txHash"])
	assert.Equal(t, float64(7), payload["userId"])
	assert.Equal(t, float64(3), payload["planId"])
	assert.Equal(t, "1000.00", payload["credited"])
	assert.Equal(t, "2026-03-01T10:05:00Z", payload["paidAt"])
	assert.Equal(t, float64(1772359500000), payload["timestamp"])
}

func TestWebhookNotifier_NoSecretNoSignature(t *testing.T) {
	var hadSig atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header[SignatureHeader]
		hadSig.Store(ok)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(staticTarget{url: srv.URL}, fastRetry, logger.NewNopLogger())
	sent, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.False(t, hadSig.Load())
}

func TestWebhookNotifier_NoURLIsNoOp(t *testing.T) {
	n := NewWebhookNotifier(staticTarget{}, fastRetry, logger.NewNopLogger())
	sent, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(staticTarget{url: srv.URL, secret: "s"}, fastRetry, logger.NewNopLogger())
	sent, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(staticTarget{url: srv.URL}, fastRetry, logger.NewNopLogger())
	sent, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(staticTarget{url: srv.URL}, fastRetry, logger.NewNopLogger())
	_, err := n.NotifyPaymentConfirmed(context.Background(), creditedOrder(t))
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
