// Package export writes aggregate CSV files for downstream analysis
// tools.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hollisreid/fraudwatch/internal/service"
)

// Exported filenames.
const (
	TransactionsDailyFile = "transactions_daily.csv"
	FraudByRegionFile     = "fraud_by_region.csv"
	LoanStatsFile         = "loan_stats.csv"
)

// Exporter writes aggregate reports from storage into a directory.
type Exporter struct {
	storage service.Storage
	dir     string
}

// New creates an exporter writing into dir.
func New(storage service.Storage, dir string) *Exporter {
	return &Exporter{
		storage: storage,
		dir:     dir,
	}
}

// ExportAll writes every aggregate CSV, overwriting previous exports.
func (e *Exporter) ExportAll(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := e.exportTransactionsDaily(ctx); err != nil {
		return err
	}
	if err := e.exportFraudByRegion(ctx); err != nil {
		return err
	}
	return e.exportLoanStats(ctx)
}

func (e *Exporter) exportTransactionsDaily(ctx context.Context) error {
	stats, err := e.storage.DailyTransactionStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load daily stats: %w", err)
	}

	records := [][]string{{"day", "txn_count", "total_amount"}}
	for _, stat := range stats {
		records = append(records, []string{
			stat.Day.Format("2006-01-02"),
			strconv.Itoa(stat.TxnCount),
			strconv.FormatFloat(stat.TotalAmount, 'f', 2, 64),
		})
	}
	return e.writeCSV(TransactionsDailyFile, records)
}

func (e *Exporter) exportFraudByRegion(ctx context.Context) error {
	stats, err := e.storage.FraudByRegion(ctx)
	if err != nil {
		return fmt.Errorf("failed to load fraud by region: %w", err)
	}

	records := [][]string{{"region", "avg_fraud_prob", "flags", "scored_rows"}}
	for _, stat := range stats {
		records = append(records, []string{
			stat.Region,
			strconv.FormatFloat(stat.AvgScore, 'f', 4, 64),
			strconv.Itoa(stat.FlaggedCount),
			strconv.Itoa(stat.ScoredRows),
		})
	}
	return e.writeCSV(FraudByRegionFile, records)
}

func (e *Exporter) exportLoanStats(ctx context.Context) error {
	stats, err := e.storage.LoanStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load loan stats: %w", err)
	}

	records := [][]string{{"status", "cnt", "total_amount"}}
	for _, stat := range stats {
		records = append(records, []string{
			stat.Status,
			strconv.Itoa(stat.Count),
			strconv.FormatFloat(stat.TotalAmount, 'f', 2, 64),
		})
	}
	return e.writeCSV(LoanStatsFile, records)
}

func (e *Exporter) writeCSV(name string, records [][]string) error {
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Info("Wrote export", "file", path, "rows", len(records)-1)
	return nil
}
