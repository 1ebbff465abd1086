// Package notify delivers outbound payment events to the configured webhook.
package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	"github.com/orris-inc/usdtpay/internal/domain/order"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const (
	EventPaymentConfirmed = "payment.confirmed"
	SignatureHeader       = "X-Signature"
)

// TargetSource resolves the webhook URL and signing secret at send time.
type TargetSource interface {
	NotifyTarget(ctx context.Context) (url, secret string)
}

// WebhookConfig controls delivery timeouts and retries.
type WebhookConfig struct {
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// PaymentConfirmedPayload is the JSON body of a payment.confirmed event.
type PaymentConfirmedPayload struct {
	Event       string     `json:"event"`
	OrderNo     string     `json:"orderNo"`
	Status      string     `json:"status"`
	Chain       string     `json:"chain"`
	Token       string     `json:"token"`
	AmountDue   string     `json:"amountDue"`
	AmountPaid  *string    `json:"amountPaid"`
	ToAddress   string     `json:"toAddress"`
	FromAddress *string    `json:"fromAddress"`
	TxHash      *string    `json:"txHash"`
	UserID      uint       `json:"userId"`
	PlanID      uint       `json:"planId"`
	Credited    string     `json:"credited"`
	PaidAt      *time.Time `json:"paidAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	Timestamp   int64      `json:"timestamp"`
}

// WebhookNotifier posts signed payment events. Delivery is best effort.
type WebhookNotifier struct {
	client  *resty.Client
	targets TargetSource
	now     func() time.Time
	logger  logger.Interface
}

var _ paymentUsecases.PaymentNotifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(targets TargetSource, cfg WebhookConfig, logger logger.Interface) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}
	if cfg.RetryMaxWait <= 0 {
		cfg.RetryMaxWait = 5 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	return &WebhookNotifier{
		client:  client,
		targets: targets,
		now:     biztime.NowUTC,
		logger:  logger,
	}
}

// NotifyPaymentConfirmed posts the order's current state. sent is false
// without error when no webhook URL is configured.
func (n *WebhookNotifier) NotifyPaymentConfirmed(ctx context.Context, o *order.Order) (bool, error) {
	url, secret := n.targets.NotifyTarget(ctx)
	if url == "" {
		return false, nil
	}

	body, err := json.Marshal(n.buildPayload(o))
	if err != nil {
		return false, fmt.Errorf("failed to encode payment event: %w", err)
	}

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if secret != "" {
		req.SetHeader(SignatureHeader, Sign(secret, body))
	}

	resp, err := req.Post(url)
	if err != nil {
		return false, fmt.Errorf("failed to deliver payment event: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("webhook responded with status %d", resp.StatusCode())
	}

	n.logger.Infow("payment event delivered",
		"order_no", o.OrderNo(),
		"status_code", resp.StatusCode(),
		"attempts", resp.Request.Attempt,
	)
	return true, nil
}

func (n *WebhookNotifier) buildPayload(o *order.Order) PaymentConfirmedPayload {
	p := PaymentConfirmedPayload{
		Event:       EventPaymentConfirmed,
		OrderNo:     o.OrderNo(),
		Status:      o.Status().String(),
		Chain:       o.Chain().String(),
		Token:       "USDT",
		AmountDue:   o.AmountDue().StringFixed(2),
		ToAddress:   o.ToAddress(),
		FromAddress: o.FromAddress(),
		TxHash:      o.TxHash(),
		UserID:      o.UserID(),
		PlanID:      o.PlanID(),
		Credited:    o.CreditGrant().StringFixed(2),
		PaidAt:      o.PaidAt(),
		CreatedAt:   o.CreatedAt(),
		Timestamp:   n.now().UnixMilli(),
	}
	if paid := o.AmountPaid(); paid != nil {
		s := paid.StringFixed(2)
		p.AmountPaid = &s
	}
	return p
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
