package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/orris-inc/usdtpay/internal/application/payment/chainwatch"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// BscKeySource supplies the BscScan API key, read on every request.
type BscKeySource interface {
	BscScanAPIKey(ctx context.Context) string
}

// bscscanResponse represents the BscScan API envelope
type bscscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// bscTokenTransfer represents a token transfer from BscScan
type bscTokenTransfer struct {
	BlockNumber  string `json:"blockNumber"`
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	ContractAddr string `json:"contractAddress"`
	TokenDecimal string `json:"tokenDecimal"`
}

// BscScanClient lists recent USDT (BEP20) transfers received by a BSC address.
type BscScanClient struct {
	client *resty.Client
	keys   BscKeySource
	logger logger.Interface
}

func NewBscScanClient(baseURL string, timeout time.Duration, keys BscKeySource, logger logger.Interface) *BscScanClient {
	return &BscScanClient{
		client: newRestyClient(baseURL, timeout),
		keys:   keys,
		logger: logger,
	}
}

var _ chainwatch.TransferSource = (*BscScanClient)(nil)

func (c *BscScanClient) RecentTransfers(ctx context.Context, chain vo.Chain, address string) ([]chainwatch.Transfer, error) {
	if chain != vo.ChainBSC {
		return nil, fmt.Errorf("BscScanClient only supports %s, got %s", vo.ChainBSC, chain)
	}

	apiKey := c.keys.BscScanAPIKey(ctx)
	if apiKey == "" {
		return nil, chainwatch.ErrNoAPIKey
	}

	address = strings.ToLower(address)
	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(map[string]string{
			"module":          "account",
			"action":          "tokentx",
			"contractaddress": chain.USDTContract(),
			"address":         address,
			"page":            "1",
			"offset":          strconv.Itoa(recentTransferLimit),
			"sort":            "desc",
			"apikey":          apiKey,
		}).
		Get("/api")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch BEP20 transfers: %w", err)
	}

	var apiResp bscscanResponse
	if err := decodeBody(resp, &apiResp); err != nil {
		return nil, fmt.Errorf("BscScan request for %s failed: %w", address, err)
	}

	if apiResp.Status != "1" {
		if strings.EqualFold(apiResp.Message, "No transactions found") {
			return nil, nil
		}
		// NOTOK typically means rate limited or a bad key; the detail is in result
		var detail string
		if err := json.Unmarshal(apiResp.Result, &detail); err == nil && detail != "" {
			return nil, fmt.Errorf("BscScan API error: %s", detail)
		}
		return nil, fmt.Errorf("BscScan API error: %s", apiResp.Message)
	}

	var raw []bscTokenTransfer
	if err := json.Unmarshal(apiResp.Result, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfers: %w", err)
	}

	transfers := make([]chainwatch.Transfer, 0, len(raw))
	for _, t := range raw {
		if strings.ToLower(t.To) != address {
			continue
		}

		decimals := chain.DefaultDecimals()
		if d, err := strconv.ParseInt(t.TokenDecimal, 10, 32); err == nil && d >= 0 {
			decimals = int32(d)
		}
		amount, err := vo.FromBaseUnits(t.Value, decimals)
		if err != nil {
			c.logger.Warnw("failed to parse transaction amount",
				"tx_hash", t.Hash,
				"value", t.Value,
				"error", err,
			)
			continue
		}

		var ts time.Time
		if sec, err := strconv.ParseInt(t.TimeStamp, 10, 64); err == nil && sec > 0 {
			ts = time.Unix(sec, 0).UTC()
		}

		transfers = append(transfers, chainwatch.Transfer{
			Chain:     chain,
			TxHash:    t.Hash,
			From:      t.From,
			To:        address,
			Amount:    amount,
			Timestamp: ts,
		})
	}

	return transfers, nil
}
