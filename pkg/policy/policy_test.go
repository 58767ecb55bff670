package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestGetSlippage_TurboIgnoresSettings(t *testing.T) {
	cases := []*Settings{
		nil,
		{},
		{SlippagePct: floatPtr(0.5)},
		{SlippagePct: floatPtr(99)},
	}
	for _, s := range cases {
		got, err := GetSlippage(ModeTurbo, s)
		require.NoError(t, err)
		assert.Equal(t, TurboSlippagePct, got, "turbo slippage must be constant for settings %+v", s)
	}
}

func TestGetSlippage_NormalPrefersSettings(t *testing.T) {
	got, err := GetSlippage(ModeNormal, &Settings{SlippagePct: floatPtr(3.5)})
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)
}

func TestGetSlippage_NormalDefaults(t *testing.T) {
	for _, s := range []*Settings{nil, {}, {SlippagePct: floatPtr(0)}} {
		got, err := GetSlippage(ModeNormal, s)
		require.NoError(t, err)
		assert.Equal(t, DefaultSlippagePct, got)
	}
}

func TestGetFeeRate(t *testing.T) {
	got, err := GetFeeRate(ModeTurbo, &Settings{PriorityFee: floatPtr(0.5)})
	require.NoError(t, err)
	assert.Equal(t, TurboPriorityFee, got)

	got, err = GetFeeRate(ModeNormal, &Settings{PriorityFee: floatPtr(0.002)})
	require.NoError(t, err)
	assert.Equal(t, 0.002, got)

	got, err = GetFeeRate(ModeNormal, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriorityFee, got)
}

func TestUnknownModeIsRequestError(t *testing.T) {
	_, err := GetSlippage(Mode("yolo"), nil)
	require.Error(t, err)
	var unknown ErrUnknownMode
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, Mode("yolo"), unknown.Mode)

	_, err = GetFeeRate(Mode(""), nil)
	assert.Error(t, err)

	_, err = GetTimeout(Mode("fast"), PhaseExecute)
	assert.Error(t, err)
}

func TestGetTimeout(t *testing.T) {
	normal, err := GetTimeout(ModeNormal, PhaseExecute)
	require.NoError(t, err)
	turbo, err := GetTimeout(ModeTurbo, PhaseExecute)
	require.NoError(t, err)
	assert.Less(t, turbo, normal, "turbo budgets must not exceed normal budgets")

	// Unknown phase falls back to the execute budget.
	got, err := GetTimeout(ModeNormal, Phase("settle"))
	require.NoError(t, err)
	assert.Equal(t, normal, got)
	assert.Greater(t, got, time.Duration(0))
}

func TestValidationSet(t *testing.T) {
	assert.Empty(t, ValidationSet(ModeTurbo))
	assert.ElementsMatch(t,
		[]Check{CheckBalance, CheckAddressShape, CheckAmountBounds},
		ValidationSet(ModeNormal))

	assert.False(t, RequiresValidation(ModeTurbo, CheckBalance))
	assert.True(t, RequiresValidation(ModeNormal, CheckBalance))
	assert.False(t, RequiresValidation(ModeNormal, Check("liquidity")))
}
