package model

import "time"

// Score reason constants. The evaluator derives ground truth by
// substring-matching the reason field, so these strings are a
// compatibility surface; change them only together with the default
// evaluation keyword.
const (
	ReasonZScoreHigh      = "Amount z-score high"
	ReasonIsolationForest = "Isolation forest anomaly"
)

// Score is one append-only anomaly scoring result for a transaction.
// A transaction accumulates one Score per scoring run; its current
// state is the Score with the greatest ID (latest wins). Scores are
// never updated or deleted.
type Score struct {
	ScoredAt    time.Time
	Reason      string
	RunID       string
	ID          int64
	TxnID       int64
	Probability float64
	Flagged     bool
}
