package isoforest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Trees:         50,
		SampleSize:    64,
		Contamination: 0.03,
		Seed:          42,
	}
}

func TestForest_ScoresBeforeFit(t *testing.T) {
	f := New(testConfig())
	_, err := f.Scores([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestForest_EmptyInput(t *testing.T) {
	f := New(testConfig())
	assert.ErrorIs(t, f.Fit(nil), ErrEmptyInput)
}

func TestForest_NonFiniteInput(t *testing.T) {
	f := New(testConfig())
	err := f.Fit([][]float64{{1, math.NaN()}})
	require.Error(t, err)
}

func TestForest_OutlierScoresHigher(t *testing.T) {
	// A tight cluster plus one far point: the far point must come out
	// with the highest raw score.
	x := make([][]float64, 0, 101)
	for i := 0; i < 100; i++ {
		x = append(x, []float64{float64(i%10) * 0.1, float64(i/10) * 0.1})
	}
	x = append(x, []float64{50, 50})

	f := New(testConfig())
	require.NoError(t, f.Fit(x))
	scores, err := f.Scores(x)
	require.NoError(t, err)
	require.Len(t, scores, len(x))

	outlier := scores[len(scores)-1]
	for i := 0; i < len(scores)-1; i++ {
		assert.Less(t, scores[i], outlier, "cluster point %d should score below the outlier", i)
	}
}

func TestForest_FiniteScoresOnDegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		x    [][]float64
	}{
		{
			name: "single row",
			x:    [][]float64{{1, 2, 3}},
		},
		{
			name: "two identical rows",
			x:    [][]float64{{5, 5}, {5, 5}},
		},
		{
			name: "constant columns",
			x:    [][]float64{{1, 7}, {1, 7}, {1, 7}, {1, 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(testConfig())
			require.NoError(t, f.Fit(tt.x))
			scores, err := f.Scores(tt.x)
			require.NoError(t, err)
			for i, s := range scores {
				assert.False(t, math.IsNaN(s) || math.IsInf(s, 0),
					"score %d must be finite, got %v", i, s)
			}
		})
	}
}

func TestForest_DeterministicForSeed(t *testing.T) {
	x := [][]float64{
		{1, 2}, {2, 1}, {1.5, 1.5}, {2.5, 2}, {100, 100},
	}

	run := func() []float64 {
		f := New(testConfig())
		require.NoError(t, f.Fit(x))
		scores, err := f.Scores(x)
		require.NoError(t, err)
		return scores
	}

	assert.Equal(t, run(), run())
}

func TestForest_DefaultsApplied(t *testing.T) {
	f := New(Config{})
	assert.Equal(t, DefaultConfig().Trees, f.cfg.Trees)
	assert.Equal(t, DefaultConfig().SampleSize, f.cfg.SampleSize)
	assert.Equal(t, DefaultConfig().Contamination, f.cfg.Contamination)
}

func TestAvgPathLength(t *testing.T) {
	assert.Equal(t, 0.0, avgPathLength(0))
	assert.Equal(t, 0.0, avgPathLength(1))
	assert.Equal(t, 1.0, avgPathLength(2))
	assert.Greater(t, avgPathLength(256), avgPathLength(16))
}

func TestQuantile(t *testing.T) {
	vals := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 5.0, quantile(vals, 1))
	assert.Equal(t, 3.0, quantile(vals, 0.5))
	assert.Equal(t, 1.0, quantile(vals, 0))
	// input must not be reordered
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, vals)
}
