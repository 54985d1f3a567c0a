package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/config"
)

// TronClient queries the tronscan transaction-info API. Tron's explorer
// reports TRC20 transfers as structured records, so no log parsing is
// needed here.
type TronClient struct {
	network        entities.Network
	config         config.NetworkConfig
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	logger         *zap.Logger
}

// NewTronClient creates a tronscan client
func NewTronClient(network entities.Network, cfg config.NetworkConfig, requestsPerSec float64, logger *zap.Logger) *TronClient {
	if requestsPerSec <= 0 {
		requestsPerSec = 4
	}

	cbSettings := gobreaker.Settings{
		Name:        "TronScanAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("scan circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &TronClient{
		network:        network,
		config:         cfg,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		rateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:         logger,
	}
}

// Network returns the chain this client queries
func (c *TronClient) Network() entities.Network {
	return c.network
}

type tronTransactionResponse struct {
	Hash              string `json:"hash"`
	Block             int64  `json:"block"`
	Confirmed         bool   `json:"confirmed"`
	ContractRet       string `json:"contractRet"`
	TRC20TransferInfo []struct {
		FromAddress     string `json:"from_address"`
		ToAddress       string `json:"to_address"`
		ContractAddress string `json:"contract_address"`
		AmountStr       string `json:"amount_str"`
		Decimals        int    `json:"decimals"`
	} `json:"trc20TransferInfo"`
}

// GetTransferByHash fetches the transaction and extracts the USDT
// transfer targeting this network's token contract.
func (c *TronClient) GetTransferByHash(ctx context.Context, txHash string) (*entities.TransferDetails, error) {
	params := url.Values{}
	params.Set("hash", txHash)

	var resp tronTransactionResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("TRC20 transaction lookup: %w", err)
	}
	if resp.Hash == "" {
		return nil, ErrTransferNotFound
	}
	if resp.ContractRet != "" && resp.ContractRet != "SUCCESS" {
		return nil, ErrTransferNotFound
	}

	for _, transfer := range resp.TRC20TransferInfo {
		if !strings.EqualFold(transfer.ContractAddress, c.config.TokenContract) {
			continue
		}

		raw, err := decimal.NewFromString(transfer.AmountStr)
		if err != nil {
			return nil, fmt.Errorf("TRC20 transfer amount: %w", err)
		}
		decimals := transfer.Decimals
		if decimals == 0 {
			decimals = c.config.TokenDecimals
		}

		return &entities.TransferDetails{
			Sender:        transfer.FromAddress,
			Recipient:     transfer.ToAddress,
			Amount:        raw.Shift(-int32(decimals)),
			TokenContract: transfer.ContractAddress,
			BlockNumber:   resp.Block,
			Confirmed:     resp.Confirmed,
		}, nil
	}

	return nil, ErrTransferNotFound
}

func (c *TronClient) doRequest(ctx context.Context, params url.Values, response interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRequestInternal(ctx, params, response)
	})
	return err
}

func (c *TronClient) doRequestInternal(ctx context.Context, params url.Values, response interface{}) error {
	fullURL := c.config.APIURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("TRON-PRO-API-KEY", c.config.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, response); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}
	return lastErr
}
