package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hollisreid/fraudwatch/internal/model"
)

// SaveScores appends a batch of scores in one database transaction.
// Either the whole batch lands or none of it does; a failed pass never
// leaves partial score history behind.
func (s *SQLiteStorage) SaveScores(ctx context.Context, scores []model.Score) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScores(scores); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fraud_scores (txn_id, anomaly_score, flagged, reason, run_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sc := range scores {
		if _, err := stmt.ExecContext(ctx,
			sc.TxnID, sc.Probability, sc.Flagged, sc.Reason, sc.RunID); err != nil {
			return fmt.Errorf("failed to insert score for txn %d: %w", sc.TxnID, err)
		}
	}

	return tx.Commit()
}

// AllScores returns the full score history ordered by score ID ascending.
func (s *SQLiteStorage) AllScores(ctx context.Context) ([]model.Score, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT score_id, txn_id, anomaly_score, flagged, reason, run_id, scored_at
		FROM fraud_scores
		ORDER BY score_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scores []model.Score
	for rows.Next() {
		var sc model.Score
		if err := rows.Scan(
			&sc.ID, &sc.TxnID, &sc.Probability, &sc.Flagged,
			&sc.Reason, &sc.RunID, &sc.ScoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}
	return scores, nil
}

// LatestLabels returns the authoritative fraud label for every
// transaction that has at least one score, keyed by transaction ID.
// Transactions without a label are omitted; a nil map without error
// means no scored transaction carries a label and the caller should
// fall back to keyword-derived ground truth.
func (s *SQLiteStorage) LatestLabels(ctx context.Context) (map[int64]bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT fs.txn_id, t.is_fraud
		FROM fraud_scores fs
		JOIN transactions t ON t.txn_id = fs.txn_id
		WHERE t.is_fraud IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fraud labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels map[int64]bool
	for rows.Next() {
		var txnID int64
		var isFraud sql.NullBool
		if err := rows.Scan(&txnID, &isFraud); err != nil {
			return nil, fmt.Errorf("failed to scan fraud label: %w", err)
		}
		if !isFraud.Valid {
			continue
		}
		if labels == nil {
			labels = make(map[int64]bool)
		}
		labels[txnID] = isFraud.Bool
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fraud labels: %w", err)
	}
	return labels, nil
}
