package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hollisreid/fraudwatch/internal/service"
)

// DailyTransactionStats returns per-day transaction counts and totals.
func (s *SQLiteStorage) DailyTransactionStats(ctx context.Context) ([]service.DailyStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(txn_time) AS day,
		       COUNT(*) AS txn_count,
		       SUM(amount) AS total_amount
		FROM transactions
		GROUP BY day
		ORDER BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []service.DailyStat
	for rows.Next() {
		var stat service.DailyStat
		var day string
		if err := rows.Scan(&day, &stat.TxnCount, &stat.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stat.Day, err = time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", day, err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily stats: %w", err)
	}
	return stats, nil
}

// FraudByRegion aggregates the latest score per transaction by the
// owning customer's region, most suspicious regions first.
func (s *SQLiteStorage) FraudByRegion(ctx context.Context) ([]service.RegionStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH latest AS (
			SELECT txn_id, MAX(score_id) AS max_sid
			FROM fraud_scores
			GROUP BY txn_id
		)
		SELECT c.region,
		       AVG(fs.anomaly_score) AS avg_score,
		       SUM(fs.flagged) AS flags,
		       COUNT(*) AS scored_rows
		FROM fraud_scores fs
		JOIN latest l ON l.txn_id = fs.txn_id AND l.max_sid = fs.score_id
		JOIN transactions t ON t.txn_id = fs.txn_id
		JOIN accounts a ON a.account_id = t.account_id
		JOIN customers c ON c.customer_id = a.customer_id
		GROUP BY c.region
		ORDER BY avg_score DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fraud by region: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []service.RegionStat
	for rows.Next() {
		var stat service.RegionStat
		if err := rows.Scan(&stat.Region, &stat.AvgScore, &stat.FlaggedCount, &stat.ScoredRows); err != nil {
			return nil, fmt.Errorf("failed to scan region stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate region stats: %w", err)
	}
	return stats, nil
}

// LoanStats aggregates loans by status, most common status first.
func (s *SQLiteStorage) LoanStats(ctx context.Context) ([]service.LoanStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS cnt, SUM(amount) AS total_amount
		FROM loans
		GROUP BY status
		ORDER BY cnt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []service.LoanStat
	for rows.Next() {
		var stat service.LoanStat
		if err := rows.Scan(&stat.Status, &stat.Count, &stat.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan loan stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan stats: %w", err)
	}
	return stats, nil
}
