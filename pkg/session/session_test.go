package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

const testAsset = "0x00000000000000000000000000000000000dEAd1"

type memStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (s *memStore) SetState(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.UserID] = *rec
	return nil
}

func (s *memStore) GetState(ctx context.Context, userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[userID]; ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

func (s *memStore) ClearState(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, userID)
	return nil
}

func newTestMachine(t *testing.T, now *time.Time) (*Machine, *memStore) {
	t.Helper()
	store := newMemStore()
	m, err := NewMachine(store, WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return m, store
}

func TestSetOverwritesPriorState(t *testing.T) {
	now := time.Now()
	m, store := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateAwaitingAsset, Payload{Action: engine.ActionBuy}))
	require.NoError(t, m.Set(ctx, "u1", StateAwaitingAmount, Payload{Action: engine.ActionSell}))

	assert.Len(t, store.recs, 1, "exactly one record per user")
	rec, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, StateAwaitingAmount, rec.State)
	assert.Equal(t, engine.ActionSell, rec.Payload.Action)
}

func TestGetReturnsEmptyOnceExpired(t *testing.T) {
	now := time.Now()
	m, store := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateConfirming, Payload{}))

	now = now.Add(DefaultTTL + time.Second)
	rec, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec, "expired state must read as empty even before removal")
	assert.Empty(t, store.recs, "expired record is lazily cleared")
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	// Idle cannot jump straight to Executing.
	err := m.Transition(ctx, "u1", StateExecuting, Payload{})
	var invalid ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StateIdle, invalid.From)
	assert.Equal(t, StateExecuting, invalid.To)
}

func TestAddressShortcutWithNoActiveState(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	out, err := m.HandleInput(ctx, "u1", testAsset)
	require.NoError(t, err)
	assert.Equal(t, OutcomePrompt, out.Kind)
	assert.Equal(t, StateAwaitingAmount, out.State)

	rec, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, engine.ActionBuy, rec.Payload.Action)
	assert.Equal(t, policy.ModeNormal, rec.Payload.Mode)
	assert.NotEmpty(t, rec.Payload.AssetAddress)
}

func TestFreeTextAmountFlow(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	_, err := m.Start(ctx, "u1", engine.ActionBuy, policy.ModeNormal)
	require.NoError(t, err)

	out, err := m.HandleInput(ctx, "u1", testAsset)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingAmount, out.State)

	// Garbage does not advance the state.
	out, err = m.HandleInput(ctx, "u1", "a lot")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetry, out.Kind)
	assert.Equal(t, StateAwaitingAmount, out.State)

	out, err = m.HandleInput(ctx, "u1", "-3")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetry, out.Kind)

	out, err = m.HandleInput(ctx, "u1", "0.5")
	require.NoError(t, err)
	assert.Equal(t, OutcomePrompt, out.Kind)
	assert.Equal(t, StateConfirming, out.State)

	confirmed, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionConfirm})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTradeReady, confirmed.Kind)
	require.NotNil(t, confirmed.Request)
	assert.Equal(t, 0.5, confirmed.Request.Amount)
	assert.Equal(t, engine.ActionBuy, confirmed.Request.Action)
	assert.Equal(t, policy.ModeNormal, confirmed.Request.Mode)
}

func TestNonFiniteAmountDoesNotAdvance(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateAwaitingAmount, Payload{
		Action:       engine.ActionBuy,
		Mode:         policy.ModeNormal,
		AssetAddress: testAsset,
	}))

	// ParseFloat accepts these spellings; none may confirm a trade.
	for _, text := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity"} {
		out, err := m.HandleInput(ctx, "u1", text)
		require.NoError(t, err, "input %q", text)
		assert.Equal(t, OutcomeRetry, out.Kind, "input %q", text)
		assert.Equal(t, StateAwaitingAmount, out.State, "input %q", text)
	}
}

func TestPercentSelectionWithNoStateFailsSoft(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	out, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionPercent, Percent: 50})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, out.Kind)
	assert.Equal(t, "session expired, please restart", out.Message)
	assert.Nil(t, out.Request, "engine must never be invoked without a live session")
}

func TestSellAllFlowKeepsHeldAmount(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateAwaitingAmount, Payload{
		Action:       engine.ActionSell,
		Mode:         policy.ModeNormal,
		AssetAddress: testAsset,
		HeldAmount:   1234.5,
	}))

	out, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionPercent, Percent: 100})
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, out.State)

	confirmed, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionConfirm})
	require.NoError(t, err)
	require.NotNil(t, confirmed.Request)
	assert.True(t, confirmed.Request.SellAll)
	assert.Equal(t, 1234.5, confirmed.Request.Amount, "haircut is applied by the engine, not the session")
}

func TestPartialPercentSelection(t *testing.T) {
	now := time.Now()
	m, _ := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateAwaitingAmount, Payload{
		Action:       engine.ActionSell,
		AssetAddress: testAsset,
		HeldAmount:   200,
	}))

	_, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionPercent, Percent: 25})
	require.NoError(t, err)
	confirmed, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionConfirm})
	require.NoError(t, err)
	require.NotNil(t, confirmed.Request)
	assert.False(t, confirmed.Request.SellAll)
	assert.Equal(t, 50.0, confirmed.Request.Amount)
}

func TestCancelClearsState(t *testing.T) {
	now := time.Now()
	m, store := newTestMachine(t, &now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "u1", StateConfirming, Payload{}))
	out, err := m.HandleSelection(ctx, "u1", Selection{Kind: SelectionCancel})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.Empty(t, store.recs)
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateAwaitingAsset))
	assert.True(t, CanTransition(StateAwaitingAmount, StateConfirming))
	assert.True(t, CanTransition(StateConfirming, StateExecuting))
	assert.False(t, CanTransition(StateAwaitingAsset, StateExecuting))
	assert.False(t, CanTransition(StateExecuting, StateConfirming))
}
