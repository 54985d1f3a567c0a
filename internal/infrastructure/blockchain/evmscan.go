package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
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

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2

	// keccak256("Transfer(address,address,uint256)")
	transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
)

// EvmScanClient queries an etherscan-family explorer API. BEP20, ERC20
// and POLYGON all speak the same proxy protocol, only the base URL and
// token contract differ.
type EvmScanClient struct {
	network        entities.Network
	config         config.NetworkConfig
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	logger         *zap.Logger
}

// NewEvmScanClient creates an explorer client for one EVM network
func NewEvmScanClient(network entities.Network, cfg config.NetworkConfig, requestsPerSec float64, logger *zap.Logger) *EvmScanClient {
	if requestsPerSec <= 0 {
		requestsPerSec = 4
	}

	cbSettings := gobreaker.Settings{
		Name:        fmt.Sprintf("%sScanAPI", network),
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

	return &EvmScanClient{
		network:        network,
		config:         cfg,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		rateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:         logger,
	}
}

// Network returns the chain this client queries
func (c *EvmScanClient) Network() entities.Network {
	return c.network
}

type proxyReceiptResponse struct {
	Result *struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		Logs        []struct {
			Address string   `json:"address"`
			Topics  []string `json:"topics"`
			Data    string   `json:"data"`
		} `json:"logs"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GetTransferByHash fetches the transaction receipt and extracts the
// USDT Transfer event targeting this network's token contract.
func (c *EvmScanClient) GetTransferByHash(ctx context.Context, txHash string) (*entities.TransferDetails, error) {
	params := url.Values{}
	params.Set("module", "proxy")
	params.Set("action", "eth_getTransactionReceipt")
	params.Set("txhash", txHash)
	if c.config.APIKey != "" {
		params.Set("apikey", c.config.APIKey)
	}

	var resp proxyReceiptResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("%s receipt lookup: %w", c.network, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s receipt lookup: %s", c.network, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, ErrTransferNotFound
	}
	if resp.Result.Status != "0x1" {
		// Reverted transactions moved no tokens
		return nil, ErrTransferNotFound
	}

	for _, log := range resp.Result.Logs {
		if !strings.EqualFold(log.Address, c.config.TokenContract) {
			continue
		}
		if len(log.Topics) != 3 || !strings.EqualFold(log.Topics[0], transferTopic) {
			continue
		}

		amount, err := parseTokenAmount(log.Data, c.config.TokenDecimals)
		if err != nil {
			return nil, fmt.Errorf("%s transfer amount: %w", c.network, err)
		}

		return &entities.TransferDetails{
			Sender:        topicToAddress(log.Topics[1]),
			Recipient:     topicToAddress(log.Topics[2]),
			Amount:        amount,
			TokenContract: log.Address,
			BlockNumber:   hexToInt64(resp.Result.BlockNumber),
			Confirmed:     true,
		}, nil
	}

	return nil, ErrTransferNotFound
}

func (c *EvmScanClient) doRequest(ctx context.Context, params url.Values, response interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRequestInternal(ctx, params, response)
	})
	return err
}

func (c *EvmScanClient) doRequestInternal(ctx context.Context, params url.Values, response interface{}) error {
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

		// Retry on 5xx
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

// parseTokenAmount converts a 32-byte hex word into a token amount
// scaled by the contract's decimals.
func parseTokenAmount(data string, decimals int) (decimal.Decimal, error) {
	raw, ok := new(big.Int).SetString(strings.TrimPrefix(data, "0x"), 16)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid amount word: %s", data)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}

// topicToAddress extracts the address from a left-padded indexed topic
func topicToAddress(topic string) string {
	h := strings.TrimPrefix(topic, "0x")
	if len(h) < 40 {
		return "0x" + h
	}
	return "0x" + h[len(h)-40:]
}

func hexToInt64(s string) int64 {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0
	}
	return v.Int64()
}
