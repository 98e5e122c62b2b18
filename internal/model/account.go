package model

import "time"

// AccountStatus indicates whether an account can transact.
type AccountStatus string

// Account status constants.
const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// Customer owns one or more accounts and belongs to a region.
type Customer struct {
	CreatedAt time.Time
	Name      string
	Region    string
	ID        int64
}

// Account is a bank account owned by a customer.
type Account struct {
	CreatedAt  time.Time
	Status     AccountStatus
	Region     string
	ID         int64
	CustomerID int64
	Balance    float64
}

// LoanStatus tracks a loan application through its lifecycle.
type LoanStatus string

// Loan status constants.
const (
	LoanApplied   LoanStatus = "APPLIED"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanClosed    LoanStatus = "CLOSED"
)

// Loan is a loan application; the scoring pipeline never reads loans,
// they exist for the aggregate exports.
type Loan struct {
	CreatedAt    time.Time
	Status       LoanStatus
	ID           int64
	CustomerID   int64
	TenureMonths int
	Amount       float64
	InterestRate float64
}
