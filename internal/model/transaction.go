// Package model defines the core domain models used throughout the application.
package model

import "time"

// TransactionType describes the banking operation that produced a transaction.
type TransactionType string

// Transaction type constants.
const (
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeWithdraw    TransactionType = "WITHDRAW"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
)

// Transaction represents a single banking transaction joined with its
// owning account's customer region. It is produced by the transaction
// source and never mutated by the scoring pipeline.
type Transaction struct {
	Time                time.Time
	Channel             Channel
	Location            string
	Region              string
	Type                TransactionType
	ID                  int64
	AccountID           int64
	CustomerID          int64
	CounterpartyAccount int64
	Amount              float64

	// IsFraud is an optional authoritative fraud label. It is only
	// populated when the store carries one; the scoring pipeline
	// ignores it and the evaluator uses it as ground truth when asked.
	IsFraud *bool
}
