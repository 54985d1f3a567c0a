// Package blockchain looks up USDT transfers by transaction hash on the
// public explorer APIs of the supported networks.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/config"
)

// ErrTransferNotFound is returned when the hash resolves to no USDT
// transfer on the client's network. A hash that simply does not exist
// on that chain reports the same way.
var ErrTransferNotFound = errors.New("transfer not found")

// Client looks up a single network for a token transfer by hash
type Client interface {
	// GetTransferByHash returns the transfer details for a transaction
	// hash, or ErrTransferNotFound when the hash yields no USDT transfer
	// on this network.
	GetTransferByHash(ctx context.Context, txHash string) (*entities.TransferDetails, error)

	// Network identifies which chain this client queries
	Network() entities.Network
}

// NewClients builds one client per configured network
func NewClients(cfg config.BlockchainConfig, logger *zap.Logger) (map[entities.Network]Client, error) {
	clients := make(map[entities.Network]Client, len(cfg.Networks))

	for name, netCfg := range cfg.Networks {
		network := entities.Network(strings.ToUpper(name))
		if err := network.Validate(); err != nil {
			return nil, fmt.Errorf("blockchain config: %w", err)
		}

		switch network {
		case entities.NetworkTRC20:
			clients[network] = NewTronClient(network, netCfg, cfg.RequestsPerSec, logger)
		default:
			clients[network] = NewEvmScanClient(network, netCfg, cfg.RequestsPerSec, logger)
		}
	}

	return clients, nil
}
