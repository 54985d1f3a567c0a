package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/blockchain"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
	"github.com/tmb8080/nova-sub001/pkg/tracing"
)

// VerificationService looks a transaction hash up on every supported
// network concurrently. A hash string is not network-scoped, so all
// attempts are reported, not just the first hit.
type VerificationService struct {
	clients             map[entities.Network]blockchain.Client
	collectionAddresses map[entities.Network]string
	lookupTimeout       time.Duration
	logger              *logger.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(clients map[entities.Network]blockchain.Client, collectionAddresses map[entities.Network]string, lookupTimeout time.Duration, logger *logger.Logger) *VerificationService {
	return &VerificationService{
		clients:             clients,
		collectionAddresses: collectionAddresses,
		lookupTimeout:       lookupTimeout,
		logger:              logger,
	}
}

// CheckAllNetworks queries every supported network for the hash, one
// goroutine per network with an individual timeout. A slow or failing
// network yields found=false with its error string; it never fails the
// verification as a whole.
func (s *VerificationService) CheckAllNetworks(ctx context.Context, txHash string) (*entities.VerificationResult, error) {
	ctx, span := tracing.GetTracer("services.verification").Start(ctx, "VerificationService.CheckAllNetworks")
	defer span.End()

	networks := entities.SupportedNetworks()
	results := make([]entities.NetworkResult, len(networks))

	var wg sync.WaitGroup
	for i, network := range networks {
		client, ok := s.clients[network]
		if !ok {
			results[i] = entities.NetworkResult{Network: network, Error: "not configured"}
			continue
		}

		wg.Add(1)
		go func(i int, network entities.Network, client blockchain.Client) {
			defer wg.Done()
			results[i] = s.lookupNetwork(ctx, network, client, txHash)
		}(i, network, client)
	}
	wg.Wait()

	result := &entities.VerificationResult{
		TxHash:  txHash,
		Results: results,
	}
	for _, r := range results {
		if r.Found {
			result.Found = true
			result.FoundOnNetwork = r.Network
			break
		}
	}

	s.logger.Info("cross-network verification completed",
		"tx_hash", txHash,
		"found", result.Found,
		"network", string(result.FoundOnNetwork))

	return result, nil
}

func (s *VerificationService) lookupNetwork(ctx context.Context, network entities.Network, client blockchain.Client, txHash string) entities.NetworkResult {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	start := time.Now()
	details, err := client.GetTransferByHash(lookupCtx, txHash)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		metrics.NetworkLookupDuration.WithLabelValues(string(network), "found").Observe(elapsed)
		return entities.NetworkResult{Network: network, Found: true, Details: details}
	case errors.Is(err, blockchain.ErrTransferNotFound):
		metrics.NetworkLookupDuration.WithLabelValues(string(network), "not_found").Observe(elapsed)
		return entities.NetworkResult{Network: network}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(lookupCtx.Err(), context.DeadlineExceeded):
		metrics.NetworkLookupDuration.WithLabelValues(string(network), "timeout").Observe(elapsed)
		s.logger.Warn("network lookup timed out",
			"network", string(network), "tx_hash", txHash)
		return entities.NetworkResult{Network: network, Error: "timeout"}
	default:
		metrics.NetworkLookupDuration.WithLabelValues(string(network), "error").Observe(elapsed)
		s.logger.Warn("network lookup failed",
			"error", err, "network", string(network), "tx_hash", txHash)
		return entities.NetworkResult{Network: network, Error: err.Error()}
	}
}

// CanAutoConfirm decides whether a verification outcome is eligible to
// approve the pending deposit without an admin. Both checks are required:
// the recipient must be the platform collection address for the network
// where the transfer was found, and the on-chain amount must be within
// tolerance of the declared one. Anything else goes to manual review.
func (s *VerificationService) CanAutoConfirm(result *entities.VerificationResult, deposit *entities.Deposit, tolerance decimal.Decimal) bool {
	hit := result.FoundResult()
	if hit == nil || hit.Details == nil {
		return false
	}

	collection, ok := s.collectionAddresses[hit.Network]
	if !ok || collection == "" {
		return false
	}
	if !strings.EqualFold(hit.Details.Recipient, collection) {
		return false
	}

	diff := hit.Details.Amount.Sub(deposit.Amount).Abs()
	return diff.LessThanOrEqual(tolerance)
}
