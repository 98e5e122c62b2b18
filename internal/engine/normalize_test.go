package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisreid/fraudwatch/internal/feature"
	"github.com/hollisreid/fraudwatch/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []float64
		want []float64
	}{
		{
			name: "empty batch",
			raw:  nil,
			want: []float64{},
		},
		{
			name: "spread maps onto unit interval",
			raw:  []float64{-1, 0, 1},
			want: []float64{0, 0.5, 1},
		},
		{
			name: "identical scores all normalize to zero",
			raw:  []float64{0.7, 0.7, 0.7},
			want: []float64{0, 0, 0},
		},
		{
			name: "single row",
			raw:  []float64{3.2},
			want: []float64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			require.Len(t, got, len(tt.raw))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
			for _, p := range got {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		})
	}
}

func TestBuildScores_FlagThreshold(t *testing.T) {
	m := &feature.Matrix{
		TxnIDs: []int64{1, 2, 3},
		Z:      []float64{0, 0, 0},
	}
	probs := []float64{0.64, 0.65, 0.66}

	scores := buildScores(m, probs, "run-1", 0.65, 2.5)
	require.Len(t, scores, 3)

	assert.False(t, scores[0].Flagged)
	assert.False(t, scores[1].Flagged, "flag rule is strictly greater than")
	assert.True(t, scores[2].Flagged)
	for i, sc := range scores {
		assert.Equal(t, sc.Flagged, sc.Probability > 0.65)
		assert.Equal(t, m.TxnIDs[i], sc.TxnID)
		assert.Equal(t, "run-1", sc.RunID)
	}
}

func TestBuildScores_ReasonPriority(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want string
	}{
		{name: "large positive z", z: 3.0, want: model.ReasonZScoreHigh},
		{name: "large negative z", z: -2.6, want: model.ReasonZScoreHigh},
		{name: "z at the threshold stays generic", z: 2.5, want: model.ReasonIsolationForest},
		{name: "small z", z: 1.15, want: model.ReasonIsolationForest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &feature.Matrix{TxnIDs: []int64{1}, Z: []float64{tt.z}}
			scores := buildScores(m, []float64{0.9}, "run", 0.65, 2.5)
			assert.Equal(t, tt.want, scores[0].Reason)
		})
	}
}

func TestBuildScores_ModerateSpikeKeepsGenericReason(t *testing.T) {
	// z-scores from a window like [100, 100, 5000] on one account:
	// even the spike stays inside the 2.5 band, so every reason falls
	// back to the generic one, flagged or not.
	m := &feature.Matrix{
		TxnIDs: []int64{1, 2, 3},
		Z:      []float64{-0.58, -0.58, 1.15},
	}
	scores := buildScores(m, []float64{0, 0, 1}, "run", 0.65, 2.5)

	for _, sc := range scores {
		assert.Equal(t, model.ReasonIsolationForest, sc.Reason)
	}
	assert.True(t, scores[2].Flagged)
}
