package blockchain

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// TronKeyRing supplies the TronGrid API keys to rotate through. It is read on
// every request so key changes apply without a restart.
type TronKeyRing interface {
	TronAPIKeys(ctx context.Context) []string
}

// trc20Transfer represents a TRC-20 transfer from TronGrid
type trc20Transfer struct {
	TransactionID  string `json:"transaction_id"`
	BlockTimestamp int64  `json:"block_timestamp"`
	From           string `json:"from"`
	To             string `json:"to"`
	Value          string `json:"value"`
	TokenInfo      struct {
		Address  string `json:"address"`
		Decimals *int   `json:"decimals"`
	} `json:"token_info"`
}

// trc20Response represents the TronGrid TRC-20 transfer response
type trc20Response struct {
	Data    []trc20Transfer `json:"data"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
}

// TronGridClient lists recent USDT transfers received by a TRON address.
type TronGridClient struct {
	client *resty.Client
	keys   TronKeyRing
	// cursor advances once per request and picks the next key in the ring.
	cursor atomic.Uint64
	logger logger.Interface
}

func NewTronGridClient(baseURL string, timeout time.Duration, keys TronKeyRing, logger logger.Interface) *TronGridClient {
	return &TronGridClient{
		client: newRestyClient(baseURL, timeout),
		keys:   keys,
		logger: logger,
	}
}

var _ chainwatch.TransferSource = (*TronGridClient)(nil)

func (c *TronGridClient) nextKey(ctx context.Context) (key string, index, total int) {
	keys := c.keys.TronAPIKeys(ctx)
	if len(keys) == 0 {
		return "", 0, 0
	}
	i := int((c.cursor.Add(1) - 1) % uint64(len(keys)))
	return keys[i], i, len(keys)
}

func (c *TronGridClient) RecentTransfers(ctx context.Context, chain vo.Chain, address string) ([]chainwatch.Transfer, error) {
	if chain != vo.ChainTRC20 {
		return nil, fmt.Errorf("TronGridClient only supports %s, got %s", vo.ChainTRC20, chain)
	}

	key, keyIndex, keyCount := c.nextKey(ctx)
	if key == "" {
		return nil, chainwatch.ErrNoAPIKey
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("TRON-PRO-API-KEY", key).
		SetPathParam("address", address).
		SetQueryParams(map[string]string{
			"limit":            strconv.Itoa(recentTransferLimit),
			"contract_address": chain.USDTContract(),
		}).
		Get("/v1/accounts/{address}/transactions/trc20")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch TRC20 transfers: %w", err)
	}

	var apiResp trc20Response
	if err := decodeBody(resp, &apiResp); err != nil {
		return nil, fmt.Errorf("TronGrid request for %s failed (key %d/%d): %w", address, keyIndex+1, keyCount, err)
	}
	if !apiResp.Success {
		if apiResp.Error != "" {
			return nil, fmt.Errorf("TronGrid API error: %s", apiResp.Error)
		}
		return nil, fmt.Errorf("TronGrid API request failed, possibly rate limited or invalid API key")
	}

	transfers := make([]chainwatch.Transfer, 0, len(apiResp.Data))
	// Tron addresses use Base58Check encoding and are case-sensitive
	for _, t := range apiResp.Data {
		if t.To != address {
			continue
		}
		if t.TokenInfo.Address != "" && t.TokenInfo.Address != chain.USDTContract() {
			continue
		}

		decimals := chain.DefaultDecimals()
		if t.TokenInfo.Decimals != nil {
			decimals = int32(*t.TokenInfo.Decimals)
		}
		amount, err := vo.FromBaseUnits(t.Value, decimals)
		if err != nil {
			c.logger.Warnw("failed to parse transaction amount",
				"tx_hash", t.TransactionID,
				"value", t.Value,
				"error", err,
			)
			continue
		}

		var ts time.Time
		if t.BlockTimestamp > 0 {
			ts = time.UnixMilli(t.BlockTimestamp).UTC()
		}

		transfers = append(transfers, chainwatch.Transfer{
			Chain:     chain,
			TxHash:    t.TransactionID,
			From:      t.From,
			To:        t.To,
			Amount:    amount,
			Timestamp: ts,
		})
	}

	return transfers, nil
}
