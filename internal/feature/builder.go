// Package feature turns raw transaction windows into numeric feature
// matrices for the anomaly scorer.
package feature

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/model"
)

// Columns in a feature row, in order.
const (
	ColAmount = iota
	ColChannelCode
	ColRegionCode
	ColZByAccount

	NumColumns
)

// Matrix is the feature table for one scoring pass: one row per
// transaction, aligned with TxnIDs and Z. It lives for a single pass
// and is never persisted.
type Matrix struct {
	TxnIDs []int64
	Rows   [][]float64
	Z      []float64
}

// Len returns the number of feature rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Build computes the feature matrix for a transaction window. It is a
// pure function of the window: channel and region codes come from the
// versioned code tables, and the per-account amount z-score is scoped
// to the window, not full history. Non-finite amounts are fatal.
func Build(txns []model.Transaction) (*Matrix, error) {
	if len(txns) == 0 {
		return &Matrix{}, nil
	}

	for i := range txns {
		if math.IsNaN(txns[i].Amount) || math.IsInf(txns[i].Amount, 0) {
			return nil, fmt.Errorf("%w: transaction %d has non-finite amount", common.ErrMalformedFeature, txns[i].ID)
		}
	}

	regionCodes := assignRegionCodes(txns)
	zByTxn := zScoresByAccount(txns)

	m := &Matrix{
		TxnIDs: make([]int64, len(txns)),
		Rows:   make([][]float64, len(txns)),
		Z:      make([]float64, len(txns)),
	}
	for i := range txns {
		txn := &txns[i]
		channelCode := txn.Channel.Code()
		if channelCode < 0 {
			channelCode = 0 // missing value fill
		}
		z := zByTxn[i]
		m.TxnIDs[i] = txn.ID
		m.Z[i] = z
		m.Rows[i] = []float64{
			txn.Amount,
			float64(channelCode),
			float64(regionCodes[txn.Region]),
			z,
		}
	}
	return m, nil
}

// assignRegionCodes maps every region in the window to its stable code
// from the versioned table; regions outside the table get codes after
// it, assigned in lexicographic order so identical windows encode
// identically.
func assignRegionCodes(txns []model.Transaction) map[string]int {
	codes := make(map[string]int)
	var unknown []string
	for i := range txns {
		region := txns[i].Region
		if _, seen := codes[region]; seen {
			continue
		}
		if code, ok := model.RegionCode(region); ok {
			codes[region] = code
			continue
		}
		codes[region] = -1 // placeholder until all unknowns are collected
		unknown = append(unknown, region)
	}

	sort.Strings(unknown)
	for i, region := range unknown {
		codes[region] = model.RegionCodeBase + i
	}
	return codes
}

// zScoresByAccount computes the per-account amount z-score within the
// window. Accounts with a single transaction or zero spread get z = 0.
func zScoresByAccount(txns []model.Transaction) []float64 {
	amounts := make(map[int64][]float64)
	for i := range txns {
		amounts[txns[i].AccountID] = append(amounts[txns[i].AccountID], txns[i].Amount)
	}

	type accountStats struct {
		mean float64
		std  float64
	}
	stats := make(map[int64]accountStats, len(amounts))
	for accountID, vals := range amounts {
		mean := stat.Mean(vals, nil)
		std := 0.0
		if len(vals) > 1 {
			std = stat.StdDev(vals, nil)
		}
		stats[accountID] = accountStats{mean: mean, std: std}
	}

	z := make([]float64, len(txns))
	for i := range txns {
		st := stats[txns[i].AccountID]
		if st.std <= 0 || math.IsNaN(st.std) {
			z[i] = 0
			continue
		}
		z[i] = (txns[i].Amount - st.mean) / st.std
	}
	return z
}
