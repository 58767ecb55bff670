// Package sim is a paper-trading swap venue kept entirely in memory. It backs
// unit tests and the dev environment; pricing is a fixed table with a linear
// impact model.
package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

const (
	defaultBalance      = 10.0
	defaultAssetPrice   = 0.001 // native per token unit
	defaultLiquidity    = 50000.0
	impactPerNativeUnit = 0.05 // percent impact per 1 native unit traded
)

func init() {
	exchange.RegisterProvider("sim", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		return New(), nil
	})
}

// Provider is an in-memory exchange.Provider implementation.
type Provider struct {
	mu sync.Mutex

	nextTx    int
	balances  map[string]float64 // account address -> native balance
	holdings  map[string]map[string]float64
	assets    map[string]exchange.AssetInfo
	failNext  error
	swapCalls int
}

// New constructs an empty simulator.
func New() *Provider {
	return &Provider{
		balances: make(map[string]float64),
		holdings: make(map[string]map[string]float64),
		assets:   make(map[string]exchange.AssetInfo),
	}
}

// SeedBalance sets the native balance for an account.
func (p *Provider) SeedBalance(account string, balance float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[normalize(account)] = balance
}

// SeedAsset registers asset metadata.
func (p *Provider) SeedAsset(info exchange.AssetInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assets[normalize(info.Address)] = info
}

// FailNextSwap makes the next Buy/Sell return err, then clears the trap.
func (p *Provider) FailNextSwap(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// SwapCalls reports how many Buy/Sell invocations reached the venue.
func (p *Provider) SwapCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.swapCalls
}

// Buy converts native funds into the asset at the seeded price.
func (p *Provider) Buy(ctx context.Context, w wallet.Handle, assetAddress string, amount, slippagePct float64, fee exchange.FeeOptions) (*exchange.SwapResult, error) {
	return p.swap(ctx, w, assetAddress, amount, true)
}

// Sell converts asset units back into native funds.
func (p *Provider) Sell(ctx context.Context, w wallet.Handle, assetAddress string, amount, slippagePct float64, fee exchange.FeeOptions) (*exchange.SwapResult, error) {
	return p.swap(ctx, w, assetAddress, amount, false)
}

func (p *Provider) swap(ctx context.Context, w wallet.Handle, assetAddress string, amount float64, isBuy bool) (*exchange.SwapResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("sim: wallet handle is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.swapCalls++
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return &exchange.SwapResult{ProviderError: err.Error()}, err
	}

	account := normalize(w.Address().Hex())
	asset := normalize(assetAddress)
	price := defaultAssetPrice
	if info, ok := p.assets[asset]; ok && info.PriceNative > 0 {
		price = info.PriceNative
	}

	p.nextTx++
	result := &exchange.SwapResult{
		TxID:        fmt.Sprintf("0xsim%08d", p.nextTx),
		InputAmount: amount,
	}
	if isBuy {
		result.ExpectedOutput = amount / price
		result.PriceImpactPct = amount * impactPerNativeUnit
		p.balances[account] -= amount
		p.holding(account)[asset] += result.ExpectedOutput
	} else {
		result.ExpectedOutput = amount * price
		result.PriceImpactPct = amount * price * impactPerNativeUnit
		p.holding(account)[asset] -= amount
		p.balances[account] += result.ExpectedOutput
	}
	return result, nil
}

// GetAssetInfo returns seeded metadata, or a synthetic default for any
// well-formed address so tests do not need to pre-seed every asset.
func (p *Provider) GetAssetInfo(ctx context.Context, assetAddress string) (*exchange.AssetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(assetAddress) {
		return nil, fmt.Errorf("sim: invalid asset address %q", assetAddress)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if info, ok := p.assets[normalize(assetAddress)]; ok {
		return &info, nil
	}
	return &exchange.AssetInfo{
		Address:         common.HexToAddress(assetAddress).Hex(),
		Symbol:          "SIM",
		Name:            "Simulated Asset",
		Decimals:        18,
		PriceNative:     defaultAssetPrice,
		LiquidityNative: defaultLiquidity,
	}, nil
}

// GetBalance returns the native balance for an account.
func (p *Provider) GetBalance(ctx context.Context, accountAddress string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if balance, ok := p.balances[normalize(accountAddress)]; ok {
		return balance, nil
	}
	return defaultBalance, nil
}

// Holding reports the tracked asset units for an account, for assertions.
func (p *Provider) Holding(account, assetAddress string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holding(normalize(account))[normalize(assetAddress)]
}

func (p *Provider) holding(account string) map[string]float64 {
	h, ok := p.holdings[account]
	if !ok {
		h = make(map[string]float64)
		p.holdings[account] = h
	}
	return h
}

func normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
