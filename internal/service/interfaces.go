// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/hollisreid/fraudwatch/internal/model"
)

// TransactionSource supplies the recent-transaction window the scoring
// pass operates on. Rows come back most recent first, joined with the
// owning account's customer region.
type TransactionSource interface {
	RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
}

// ScoreSink accepts scoring results. SaveScores appends the whole
// batch atomically: either every score lands or none do.
type ScoreSink interface {
	SaveScores(ctx context.Context, scores []model.Score) error
}

// ScoreReader provides the evaluator's view of the score history.
type ScoreReader interface {
	// AllScores returns the full score history ordered by ID ascending.
	AllScores(ctx context.Context) ([]model.Score, error)
}

// GroundTruth exposes an authoritative fraud label per transaction,
// when the store carries one. LatestLabels returns the label for every
// transaction that has at least one score; a nil map without error
// means no authoritative labels exist and the caller should fall back
// to keyword-derived truth.
type GroundTruth interface {
	LatestLabels(ctx context.Context) (map[int64]bool, error)
}

// Storage is the full persistence contract. The SQLite store
// implements all of it; components accept the narrow interface they
// need so tests can substitute fakes.
type Storage interface {
	TransactionSource
	ScoreSink
	ScoreReader
	GroundTruth

	// Seeding and ingestion
	SaveTransactions(ctx context.Context, txns []model.Transaction) error
	SaveCustomers(ctx context.Context, customers []model.Customer) error
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	SaveLoans(ctx context.Context, loans []model.Loan) error
	ActiveAccounts(ctx context.Context) ([]model.Account, error)
	AdjustBalances(ctx context.Context, deltas map[int64]float64) error

	// Aggregates for CSV export
	DailyTransactionStats(ctx context.Context) ([]DailyStat, error)
	FraudByRegion(ctx context.Context) ([]RegionStat, error)
	LoanStats(ctx context.Context) ([]LoanStat, error)

	Migrate(ctx context.Context) error
	Close() error
}

// DailyStat is one day of transaction volume.
type DailyStat struct {
	Day         time.Time
	TxnCount    int
	TotalAmount float64
}

// RegionStat aggregates latest fraud scores per customer region.
type RegionStat struct {
	Region       string
	AvgScore     float64
	FlaggedCount int
	ScoredRows   int
}

// LoanStat aggregates loans by status.
type LoanStat struct {
	Status      string
	Count       int
	TotalAmount float64
}
