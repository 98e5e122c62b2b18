package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hollisreid/fraudwatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidScore       = errors.New("invalid score")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(txns []model.Transaction) error {
	if txns == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(txns) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn.AccountID <= 0 {
		return fmt.Errorf("%w: account id must be positive", ErrInvalidTransaction)
	}
	if txn.Time.IsZero() {
		return fmt.Errorf("%w: time is required", ErrInvalidTransaction)
	}
	if math.IsNaN(txn.Amount) || math.IsInf(txn.Amount, 0) {
		return fmt.Errorf("%w: amount must be finite", ErrInvalidTransaction)
	}
	if !txn.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidTransaction, txn.Channel)
	}
	return nil
}

// validateScores validates a slice of scores before a batch insert.
func validateScores(scores []model.Score) error {
	if scores == nil {
		return fmt.Errorf("%w: scores", ErrNilParameter)
	}
	if len(scores) == 0 {
		return fmt.Errorf("%w: scores", ErrEmptySlice)
	}
	for i, sc := range scores {
		if sc.TxnID <= 0 {
			return fmt.Errorf("score at index %d: %w: txn id must be positive", i, ErrInvalidScore)
		}
		if sc.Probability < 0 || sc.Probability > 1 || math.IsNaN(sc.Probability) {
			return fmt.Errorf("score at index %d: %w: probability %v outside [0,1]", i, ErrInvalidScore, sc.Probability)
		}
		if sc.Reason == "" {
			return fmt.Errorf("score at index %d: %w: reason is required", i, ErrInvalidScore)
		}
	}
	return nil
}
