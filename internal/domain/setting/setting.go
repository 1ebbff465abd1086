// Package setting describes the runtime-adjustable payment settings.
package setting

import (
	"time"
)

// Key names a setting. The same string is used as the persisted key and as
// the environment variable fallback.
type Key string

const (
	KeyTronAddresses  Key = "PAY_TRON_ADDRESSES"
	KeyBscAddresses   Key = "PAY_BSC_ADDRESSES"
	KeyTronGridAPIKey Key = "TRONGRID_API_KEY"
	KeyTronProAPIKey  Key = "TRON_PRO_API_KEY"
	KeyTronScanAPIKey Key = "TRONSCAN_API_KEY"
	KeyBscScanAPIKey  Key = "BSCSCAN_API_KEY"
	KeyNotifyURL      Key = "PAYMENT_NOTIFY_URL"
	KeyNotifySecret   Key = "PAYMENT_NOTIFY_SECRET"
	KeyPollIntervalMs Key = "PAY_POLL_INTERVAL_MS"
)

// Definition carries display and masking rules for a key.
type Definition struct {
	Key         Key
	Secret      bool
	Description string
}

var definitions = []Definition{
	{Key: KeyTronAddresses, Description: "Comma-separated TRC20 receiving addresses"},
	{Key: KeyBscAddresses, Description: "Comma-separated BSC receiving addresses"},
	{Key: KeyTronGridAPIKey, Secret: true, Description: "TronGrid API key (primary)"},
	{Key: KeyTronProAPIKey, Secret: true, Description: "TronGrid API key (rotated)"},
	{Key: KeyTronScanAPIKey, Secret: true, Description: "Legacy TRON API key, added to the rotation"},
	{Key: KeyBscScanAPIKey, Secret: true, Description: "BscScan API key"},
	{Key: KeyNotifyURL, Description: "Webhook URL for payment.confirmed events"},
	{Key: KeyNotifySecret, Secret: true, Description: "HMAC-SHA256 secret for X-Signature"},
	{Key: KeyPollIntervalMs, Description: "Explorer poll interval in milliseconds (minimum 5000)"},
}

func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	for _, d := range definitions {
		if string(d.Key) == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Setting is a persisted override.
type Setting struct {
	Key       Key
	Value     string
	UpdatedAt time.Time
}
