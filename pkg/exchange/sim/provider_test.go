package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
)

const (
	testAccount = "0x1111111111111111111111111111111111111111"
	testAsset   = "0x2222222222222222222222222222222222222222"
)

type stubHandle struct{ addr common.Address }

func (s stubHandle) Address() common.Address           { return s.addr }
func (s stubHandle) SignHash(d []byte) ([]byte, error) { return make([]byte, 65), nil }

func handle() stubHandle {
	return stubHandle{addr: common.HexToAddress(testAccount)}
}

func TestBuySellRoundTrip(t *testing.T) {
	p := New()
	p.SeedBalance(testAccount, 5.0)
	p.SeedAsset(exchange.AssetInfo{Address: testAsset, Symbol: "TKN", Decimals: 18, PriceNative: 0.01})

	buy, err := p.Buy(context.Background(), handle(), testAsset, 1.0, 1.5, exchange.FeeOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, buy.TxID)
	assert.InDelta(t, 100.0, buy.ExpectedOutput, 1e-9)
	assert.InDelta(t, 100.0, p.Holding(testAccount, testAsset), 1e-9)

	balance, err := p.GetBalance(context.Background(), testAccount)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, balance, 1e-9)

	sell, err := p.Sell(context.Background(), handle(), testAsset, 50, 1.5, exchange.FeeOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, buy.TxID, sell.TxID)
	assert.InDelta(t, 0.5, sell.ExpectedOutput, 1e-9)
	assert.InDelta(t, 50.0, p.Holding(testAccount, testAsset), 1e-9)
}

func TestFailNextSwap(t *testing.T) {
	p := New()
	venueErr := errors.New("pool drained")
	p.FailNextSwap(venueErr)

	res, err := p.Buy(context.Background(), handle(), testAsset, 1.0, 1.5, exchange.FeeOptions{})
	require.ErrorIs(t, err, venueErr)
	assert.Equal(t, "pool drained", res.ProviderError)
	assert.Equal(t, 1, p.SwapCalls())

	// trap is one-shot
	_, err = p.Buy(context.Background(), handle(), testAsset, 1.0, 1.5, exchange.FeeOptions{})
	assert.NoError(t, err)
}

func TestGetAssetInfo(t *testing.T) {
	p := New()
	_, err := p.GetAssetInfo(context.Background(), "not-an-address")
	assert.Error(t, err)

	info, err := p.GetAssetInfo(context.Background(), testAsset)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAsset).Hex(), info.Address)
	assert.Greater(t, info.PriceNative, 0.0)
}

func TestGetBalance_DefaultSeed(t *testing.T) {
	p := New()
	balance, err := p.GetBalance(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, defaultBalance, balance)
}
