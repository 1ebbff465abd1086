package blockchain

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// Maximum response body size for explorer APIs (1MB)
	maxBlockchainResponseSize = 1 << 20
	// Number of most recent transfers fetched per address
	recentTransferLimit = 50

	defaultRequestTimeout = 10 * time.Second
)

func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// decodeBody reads a raw response body, rejecting non-2xx statuses.
func decodeBody(resp *resty.Response, out any) error {
	body := resp.RawBody()
	defer body.Close()

	limited := io.LimitReader(body, maxBlockchainResponseSize)
	if resp.IsError() {
		snippet, _ := io.ReadAll(io.LimitReader(limited, 200))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
