// Package router implements exchange.Provider against an HTTP swap-routing
// service. The service owns route discovery and transaction assembly; this
// client quotes, signs the returned digest with the caller's wallet handle
// and submits.
package router

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

const (
	defaultHTTPTimeout = 30 * time.Second

	pathQuote   = "/v1/swap/quote"
	pathSubmit  = "/v1/swap/submit"
	pathAsset   = "/v1/asset"
	pathBalance = "/v1/balance"
)

func init() {
	exchange.RegisterProvider("router", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		return NewClient(cfg)
	})
}

// Client talks to a swap-router HTTP API.
type Client struct {
	endpoint   string
	apiKey     string
	chainID    int64
	httpClient *http.Client
}

// ClientOption customises the router client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient constructs a router provider from configuration.
func NewClient(cfg *exchange.ProviderConfig, opts ...ClientOption) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("router: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	c := &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		chainID:    cfg.ChainID,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type quoteRequest struct {
	ChainID     int64   `json:"chainId"`
	Account     string  `json:"account"`
	Asset       string  `json:"asset"`
	Side        string  `json:"side"`
	Amount      float64 `json:"amount"`
	SlippagePct float64 `json:"slippagePct"`
	PriorityFee float64 `json:"priorityFee"`
}

type quoteResponse struct {
	QuoteID        string  `json:"quoteId"`
	ExpectedOutput float64 `json:"expectedOutput"`
	PriceImpactPct float64 `json:"priceImpactPct"`
	SigningDigest  string  `json:"signingDigest"` // hex-encoded 32-byte digest
	Error          string  `json:"error,omitempty"`
}

type submitRequest struct {
	QuoteID   string `json:"quoteId"`
	Signature string `json:"signature"`
}

type submitResponse struct {
	TxID  string `json:"txId"`
	Error string `json:"error,omitempty"`
}

// Buy swaps native funds into the target asset.
func (c *Client) Buy(ctx context.Context, w wallet.Handle, assetAddress string, amount, slippagePct float64, fee exchange.FeeOptions) (*exchange.SwapResult, error) {
	return c.swap(ctx, w, "buy", assetAddress, amount, slippagePct, fee)
}

// Sell swaps the target asset back to native funds.
func (c *Client) Sell(ctx context.Context, w wallet.Handle, assetAddress string, amount, slippagePct float64, fee exchange.FeeOptions) (*exchange.SwapResult, error) {
	return c.swap(ctx, w, "sell", assetAddress, amount, slippagePct, fee)
}

func (c *Client) swap(ctx context.Context, w wallet.Handle, side, assetAddress string, amount, slippagePct float64, fee exchange.FeeOptions) (*exchange.SwapResult, error) {
	if w == nil {
		return nil, fmt.Errorf("router: wallet handle is required")
	}
	if !common.IsHexAddress(assetAddress) {
		return nil, fmt.Errorf("router: invalid asset address %q", assetAddress)
	}

	var quote quoteResponse
	err := c.post(ctx, pathQuote, quoteRequest{
		ChainID:     c.chainID,
		Account:     w.Address().Hex(),
		Asset:       common.HexToAddress(assetAddress).Hex(),
		Side:        side,
		Amount:      amount,
		SlippagePct: slippagePct,
		PriorityFee: fee.PriorityFee,
	}, &quote)
	if err != nil {
		return nil, fmt.Errorf("router: quote %s: %w", side, err)
	}
	if quote.Error != "" {
		return &exchange.SwapResult{ProviderError: quote.Error}, fmt.Errorf("router: quote rejected: %s", quote.Error)
	}

	digest, err := hex.DecodeString(strings.TrimPrefix(quote.SigningDigest, "0x"))
	if err != nil || len(digest) != 32 {
		return nil, fmt.Errorf("router: malformed signing digest %q", quote.SigningDigest)
	}
	sig, err := w.SignHash(digest)
	if err != nil {
		return nil, fmt.Errorf("router: sign quote: %w", err)
	}

	var submitted submitResponse
	err = c.post(ctx, pathSubmit, submitRequest{
		QuoteID:   quote.QuoteID,
		Signature: "0x" + hex.EncodeToString(sig),
	}, &submitted)
	if err != nil {
		return nil, fmt.Errorf("router: submit %s: %w", side, err)
	}
	if submitted.Error != "" {
		return &exchange.SwapResult{ProviderError: submitted.Error}, fmt.Errorf("router: submit rejected: %s", submitted.Error)
	}

	return &exchange.SwapResult{
		TxID:           submitted.TxID,
		InputAmount:    amount,
		ExpectedOutput: quote.ExpectedOutput,
		PriceImpactPct: quote.PriceImpactPct,
	}, nil
}

// GetAssetInfo fetches metadata for an asset address.
func (c *Client) GetAssetInfo(ctx context.Context, assetAddress string) (*exchange.AssetInfo, error) {
	if !common.IsHexAddress(assetAddress) {
		return nil, fmt.Errorf("router: invalid asset address %q", assetAddress)
	}
	var info exchange.AssetInfo
	if err := c.get(ctx, fmt.Sprintf("%s/%s", pathAsset, common.HexToAddress(assetAddress).Hex()), &info); err != nil {
		return nil, fmt.Errorf("router: asset info: %w", err)
	}
	return &info, nil
}

// GetBalance fetches the native balance of an account address.
func (c *Client) GetBalance(ctx context.Context, accountAddress string) (float64, error) {
	if !common.IsHexAddress(accountAddress) {
		return 0, fmt.Errorf("router: invalid account address %q", accountAddress)
	}
	var resp struct {
		Balance float64 `json:"balance"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/%s", pathBalance, common.HexToAddress(accountAddress).Hex()), &resp); err != nil {
		return 0, fmt.Errorf("router: balance: %w", err)
	}
	return resp.Balance, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
