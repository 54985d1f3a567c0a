package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Network identifies a supported blockchain network
type Network string

const (
	NetworkBEP20   Network = "BEP20"
	NetworkERC20   Network = "ERC20"
	NetworkPolygon Network = "POLYGON"
	NetworkTRC20   Network = "TRC20"
)

// SupportedNetworks returns the fixed set of networks the verifier queries,
// in reporting order.
func SupportedNetworks() []Network {
	return []Network{NetworkBEP20, NetworkERC20, NetworkPolygon, NetworkTRC20}
}

// Validate checks if the network is supported
func (n Network) Validate() error {
	switch n {
	case NetworkBEP20, NetworkERC20, NetworkPolygon, NetworkTRC20:
		return nil
	default:
		return fmt.Errorf("unsupported network: %s", n)
	}
}

// TransferDetails describes a token transfer found on-chain for a hash
type TransferDetails struct {
	Recipient     string          `json:"recipient"`
	Sender        string          `json:"sender"`
	Amount        decimal.Decimal `json:"amount"`
	TokenContract string          `json:"token_contract,omitempty"`
	BlockNumber   int64           `json:"block_number"`
	Confirmed     bool            `json:"confirmed"`
}

// NetworkResult is the outcome of looking up a hash on one network. A
// lookup failure (including timeout) is recorded in Error; it is not a
// failure of the whole verification.
type NetworkResult struct {
	Network Network          `json:"network"`
	Found   bool             `json:"found"`
	Details *TransferDetails `json:"details,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// VerificationResult aggregates every network's outcome. All attempts are
// reported, not just the first hit, because the same hash string is not
// network-scoped and operators need to see where the lookup went.
type VerificationResult struct {
	TxHash         string          `json:"tx_hash"`
	Found          bool            `json:"found"`
	FoundOnNetwork Network         `json:"found_on_network,omitempty"`
	Results        []NetworkResult `json:"results"`
}

// FoundResult returns the result for the network where the transfer was
// found, or nil when no network reported a hit.
func (r *VerificationResult) FoundResult() *NetworkResult {
	if !r.Found {
		return nil
	}
	for i := range r.Results {
		if r.Results[i].Network == r.FoundOnNetwork {
			return &r.Results[i]
		}
	}
	return nil
}
