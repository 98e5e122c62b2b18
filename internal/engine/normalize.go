package engine

import (
	"github.com/hollisreid/fraudwatch/internal/feature"
	"github.com/hollisreid/fraudwatch/internal/model"
)

// Normalize min-max scales raw anomaly scores to [0, 1] within the
// batch. A batch where every raw score is identical normalizes to all
// zeros; that is a documented degenerate case, not an error.
func Normalize(raw []float64) []float64 {
	probs := make([]float64, len(raw))
	if len(raw) == 0 {
		return probs
	}

	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return probs
	}

	for i, v := range raw {
		probs[i] = (v - lo) / (hi - lo)
	}
	return probs
}

// buildScores derives one score per transaction from the normalized
// probabilities. The reason is chosen by priority: a window-relative
// amount z-score beyond the threshold wins, otherwise the generic
// isolation-forest reason.
func buildScores(m *feature.Matrix, probs []float64, runID string, flagThreshold, zThreshold float64) []model.Score {
	scores := make([]model.Score, len(m.TxnIDs))
	for i := range scores {
		reason := model.ReasonIsolationForest
		if m.Z[i] > zThreshold || m.Z[i] < -zThreshold {
			reason = model.ReasonZScoreHigh
		}
		scores[i] = model.Score{
			TxnID:       m.TxnIDs[i],
			Probability: probs[i],
			Flagged:     probs[i] > flagThreshold,
			Reason:      reason,
			RunID:       runID,
		}
	}
	return scores
}
