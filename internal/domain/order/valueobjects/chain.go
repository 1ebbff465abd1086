package valueobjects

import (
	"fmt"
	"regexp"
	"strings"
)

// Chain identifies the network a USDT transfer settles on.
type Chain string

const (
	ChainTRC20 Chain = "TRC20"
	ChainBSC   Chain = "BSC"
)

var (
	tronAddressPattern = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
	evmAddressPattern  = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// AllChains lists every supported chain in poll order.
func AllChains() []Chain {
	return []Chain{ChainTRC20, ChainBSC}
}

// ParseChain accepts the canonical names plus the tron and bep20 aliases, case-insensitively.
func ParseChain(s string) (Chain, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRC20", "TRON":
		return ChainTRC20, nil
	case "BSC", "BEP20":
		return ChainBSC, nil
	default:
		return "", fmt.Errorf("unsupported chain: %q", s)
	}
}

func (c Chain) IsValid() bool {
	switch c {
	case ChainTRC20, ChainBSC:
		return true
	default:
		return false
	}
}

func (c Chain) String() string {
	return string(c)
}

// USDTContract returns the token contract address polled on this chain.
func (c Chain) USDTContract() string {
	switch c {
	case ChainTRC20:
		return "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	case ChainBSC:
		return "0x55d398326f99059fF775485246999027B3197955"
	default:
		return ""
	}
}

// DefaultDecimals is used when the explorer payload omits token decimals.
func (c Chain) DefaultDecimals() int32 {
	switch c {
	case ChainTRC20:
		return 6
	case ChainBSC:
		return 18
	default:
		return 0
	}
}

// DefaultPoolAddress is the last-resort receiving address when no pool is configured.
func (c Chain) DefaultPoolAddress() string {
	switch c {
	case ChainTRC20:
		return "TRX7JwqbKGQQXrHqVeQqSKsua8d2VPiX9d"
	case ChainBSC:
		return "0x742d35Cc6634C0532925a3b8D4C9db96590b4165"
	default:
		return ""
	}
}

// ValidateAddress checks the address format for this chain.
func (c Chain) ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	switch c {
	case ChainTRC20:
		if !tronAddressPattern.MatchString(address) {
			return fmt.Errorf("invalid TRON address: %s", address)
		}
	case ChainBSC:
		if !evmAddressPattern.MatchString(address) {
			return fmt.Errorf("invalid BSC address: %s", address)
		}
	default:
		return fmt.Errorf("unsupported chain: %s", c)
	}
	return nil
}

// SameAddress compares addresses with the chain's case rules: base58 is
// case-sensitive, hex is not.
func (c Chain) SameAddress(a, b string) bool {
	if c == ChainBSC {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// CanonicalAddress normalises hex addresses to lowercase for storage lookups.
func (c Chain) CanonicalAddress(address string) string {
	address = strings.TrimSpace(address)
	if c == ChainBSC {
		return strings.ToLower(address)
	}
	return address
}
