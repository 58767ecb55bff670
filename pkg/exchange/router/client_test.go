package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
)

const (
	testDigest = "0x1111111111111111111111111111111111111111111111111111111111111111"
	testAsset  = "0x2222222222222222222222222222222222222222"
)

type stubHandle struct {
	signed [][]byte
}

func (s *stubHandle) Address() common.Address {
	return common.HexToAddress("0x3333333333333333333333333333333333333333")
}

func (s *stubHandle) SignHash(digest []byte) ([]byte, error) {
	s.signed = append(s.signed, digest)
	return make([]byte, 65), nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&exchange.ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "k-test",
		ChainID:  10143,
	})
	require.NoError(t, err)
	return client
}

func TestBuyQuotesSignsAndSubmits(t *testing.T) {
	var quoted quoteRequest
	var submitted submitRequest
	handle := &stubHandle{}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k-test", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case pathQuote:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&quoted))
			json.NewEncoder(w).Encode(quoteResponse{
				QuoteID:        "q-1",
				ExpectedOutput: 500,
				PriceImpactPct: 0.3,
				SigningDigest:  testDigest,
			})
		case pathSubmit:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			json.NewEncoder(w).Encode(submitResponse{TxID: "0xabc"})
		default:
			http.NotFound(w, r)
		}
	}))

	result, err := client.Buy(context.Background(), handle, testAsset, 0.5, 1.5, exchange.FeeOptions{PriorityFee: 0.001})
	require.NoError(t, err)

	assert.Equal(t, "0xabc", result.TxID)
	assert.Equal(t, 0.5, result.InputAmount)
	assert.Equal(t, 500.0, result.ExpectedOutput)
	assert.Equal(t, 0.3, result.PriceImpactPct)

	assert.Equal(t, "buy", quoted.Side)
	assert.Equal(t, int64(10143), quoted.ChainID)
	assert.Equal(t, handle.Address().Hex(), quoted.Account)

	require.Len(t, handle.signed, 1)
	assert.Len(t, handle.signed[0], 32)
	assert.Equal(t, "q-1", submitted.QuoteID)
	assert.True(t, strings.HasPrefix(submitted.Signature, "0x"))
}

func TestQuoteRejectionCarriesProviderError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(quoteResponse{Error: "no route"})
	}))

	result, err := client.Sell(context.Background(), &stubHandle{}, testAsset, 1, 1.5, exchange.FeeOptions{})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "no route", result.ProviderError)
}

func TestMalformedDigestRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(quoteResponse{QuoteID: "q-1", SigningDigest: "0xbeef"})
	}))

	_, err := client.Buy(context.Background(), &stubHandle{}, testAsset, 1, 1.5, exchange.FeeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed signing digest")
}

func TestNonOKStatusSurfacesBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	_, err := client.GetBalance(context.Background(), "0x3333333333333333333333333333333333333333")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestInvalidAddressesRejectedLocally(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))

	_, err := client.Buy(context.Background(), &stubHandle{}, "nope", 1, 1.5, exchange.FeeOptions{})
	assert.Error(t, err)
	_, err = client.GetAssetInfo(context.Background(), "nope")
	assert.Error(t, err)
	_, err = client.GetBalance(context.Background(), "nope")
	assert.Error(t, err)
}

func TestGetAssetInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, pathAsset))
		json.NewEncoder(w).Encode(exchange.AssetInfo{
			Address:     common.HexToAddress(testAsset).Hex(),
			Symbol:      "TKN",
			Decimals:    18,
			PriceNative: 0.002,
		})
	}))

	info, err := client.GetAssetInfo(context.Background(), testAsset)
	require.NoError(t, err)
	assert.Equal(t, "TKN", info.Symbol)
	assert.Equal(t, 0.002, info.PriceNative)
}
