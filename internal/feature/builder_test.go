package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/model"
)

func txn(id, account int64, amount float64, channel model.Channel, region string) model.Transaction {
	return model.Transaction{
		ID:        id,
		AccountID: account,
		Amount:    amount,
		Channel:   channel,
		Region:    region,
	}
}

func TestBuild_EmptyWindow(t *testing.T) {
	m, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestBuild_ZScoreWithinWindow(t *testing.T) {
	// One account with two ordinary amounts and one spike. With the
	// sample standard deviation the z-scores come out around
	// [-0.58, -0.58, 1.15]: nobody crosses the 2.5 alert line.
	txns := []model.Transaction{
		txn(1, 1, 100, model.ChannelATM, "North"),
		txn(2, 1, 100, model.ChannelATM, "North"),
		txn(3, 1, 5000, model.ChannelATM, "North"),
	}

	m, err := Build(txns)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	assert.InDelta(t, -0.577, m.Z[0], 0.01)
	assert.InDelta(t, -0.577, m.Z[1], 0.01)
	assert.InDelta(t, 1.155, m.Z[2], 0.01)
	for _, z := range m.Z {
		assert.Less(t, math.Abs(z), 2.5)
	}
}

func TestBuild_SingleTransactionAccount(t *testing.T) {
	txns := []model.Transaction{
		txn(1, 1, 750, model.ChannelOnline, "South"),
	}

	m, err := Build(txns)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Z[0], "undefined spread must fall back to z = 0")
}

func TestBuild_ZeroSpreadAccount(t *testing.T) {
	txns := []model.Transaction{
		txn(1, 1, 250, model.ChannelMobile, "East"),
		txn(2, 1, 250, model.ChannelMobile, "East"),
	}

	m, err := Build(txns)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Z[0])
	assert.Equal(t, 0.0, m.Z[1])
}

func TestBuild_StableCategoryCodes(t *testing.T) {
	txns := []model.Transaction{
		txn(1, 1, 10, model.ChannelBranch, "North"),
		txn(2, 2, 20, model.ChannelMobile, "West"),
	}

	m, err := Build(txns)
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Rows[0][ColChannelCode])
	assert.Equal(t, 3.0, m.Rows[1][ColChannelCode])
	assert.Equal(t, 0.0, m.Rows[0][ColRegionCode])
	assert.Equal(t, 3.0, m.Rows[1][ColRegionCode])
}

func TestBuild_UnknownRegionsGetDeterministicCodes(t *testing.T) {
	txns := []model.Transaction{
		txn(1, 1, 10, model.ChannelATM, "Zeta"),
		txn(2, 2, 20, model.ChannelATM, "Alpha"),
		txn(3, 3, 30, model.ChannelATM, "North"),
	}

	m, err := Build(txns)
	require.NoError(t, err)

	// Unknown regions are coded after the versioned table in
	// lexicographic order: Alpha before Zeta.
	assert.Equal(t, float64(model.RegionCodeBase+1), m.Rows[0][ColRegionCode])
	assert.Equal(t, float64(model.RegionCodeBase), m.Rows[1][ColRegionCode])
	assert.Equal(t, 0.0, m.Rows[2][ColRegionCode])

	// Identical window, identical coding.
	again, err := Build(txns)
	require.NoError(t, err)
	assert.Equal(t, m.Rows, again.Rows)
}

func TestBuild_MalformedAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
	}{
		{name: "NaN amount", amount: math.NaN()},
		{name: "positive infinity", amount: math.Inf(1)},
		{name: "negative infinity", amount: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]model.Transaction{
				txn(1, 1, tt.amount, model.ChannelATM, "North"),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedFeature)
		})
	}
}

func TestBuild_MatrixShape(t *testing.T) {
	txns := []model.Transaction{
		txn(7, 1, 42.5, model.ChannelOnline, "West"),
	}

	m, err := Build(txns)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, int64(7), m.TxnIDs[0])
	assert.Len(t, m.Rows[0], NumColumns)
	assert.Equal(t, 42.5, m.Rows[0][ColAmount])
	assert.Equal(t, m.Z[0], m.Rows[0][ColZByAccount])
}
