package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hollisreid/fraudwatch/internal/model"
)

// RecentTransactions returns the most recent transactions joined with
// the owning account's customer region, newest first, bounded by limit.
// This is the window a single scoring pass operates on.
func (s *SQLiteStorage) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.txn_id, t.account_id, t.txn_time, t.txn_type, t.amount,
		       COALESCE(t.counterparty_account, 0), t.channel, COALESCE(t.location, ''),
		       t.is_fraud, a.customer_id, c.region
		FROM transactions t
		JOIN accounts a ON a.account_id = t.account_id
		JOIN customers c ON c.customer_id = a.customer_id
		ORDER BY t.txn_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var txnType, channel string
		var isFraud sql.NullBool
		if err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.Time,
			&txnType,
			&txn.Amount,
			&txn.CounterpartyAccount,
			&channel,
			&txn.Location,
			&isFraud,
			&txn.CustomerID,
			&txn.Region,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = model.TransactionType(txnType)
		txn.Channel = model.Channel(channel)
		if isFraud.Valid {
			v := isFraud.Bool
			txn.IsFraud = &v
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// SaveTransactions inserts a batch of transactions in one database transaction.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			account_id, txn_time, txn_type, amount,
			counterparty_account, channel, location, is_fraud
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		txn := &txns[i]
		var counterparty any
		if txn.CounterpartyAccount != 0 {
			counterparty = txn.CounterpartyAccount
		}
		var isFraud any
		if txn.IsFraud != nil {
			isFraud = *txn.IsFraud
		}
		if _, err := stmt.ExecContext(ctx,
			txn.AccountID,
			txn.Time,
			string(txn.Type),
			txn.Amount,
			counterparty,
			string(txn.Channel),
			txn.Location,
			isFraud,
		); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	return tx.Commit()
}

// SaveCustomers inserts customers, assigning IDs back onto the slice.
func (s *SQLiteStorage) SaveCustomers(ctx context.Context, customers []model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(customers) == 0 {
		return fmt.Errorf("%w: customers", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range customers {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO customers (name, region) VALUES (?, ?)`,
			customers[i].Name, customers[i].Region)
		if err != nil {
			return fmt.Errorf("failed to insert customer: %w", err)
		}
		customers[i].ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read customer id: %w", err)
		}
	}

	return tx.Commit()
}

// SaveAccounts inserts accounts, assigning IDs back onto the slice.
func (s *SQLiteStorage) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("%w: accounts", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range accounts {
		status := accounts[i].Status
		if status == "" {
			status = model.AccountActive
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (customer_id, balance, status) VALUES (?, ?, ?)`,
			accounts[i].CustomerID, accounts[i].Balance, string(status))
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		accounts[i].ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read account id: %w", err)
		}
	}

	return tx.Commit()
}

// SaveLoans inserts loan applications.
func (s *SQLiteStorage) SaveLoans(ctx context.Context, loans []model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(loans) == 0 {
		return fmt.Errorf("%w: loans", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loans (customer_id, amount, interest_rate, tenure_months, status)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, loan := range loans {
		if _, err := stmt.ExecContext(ctx,
			loan.CustomerID, loan.Amount, loan.InterestRate,
			loan.TenureMonths, string(loan.Status)); err != nil {
			return fmt.Errorf("failed to insert loan: %w", err)
		}
	}

	return tx.Commit()
}

// ActiveAccounts returns all accounts with ACTIVE status together with
// their customer's region.
func (s *SQLiteStorage) ActiveAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.account_id, a.customer_id, a.balance, a.status, c.region
		FROM accounts a
		JOIN customers c ON c.customer_id = a.customer_id
		WHERE a.status = 'ACTIVE'
		ORDER BY a.account_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var acc model.Account
		var status string
		if err := rows.Scan(&acc.ID, &acc.CustomerID, &acc.Balance, &status, &acc.Region); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		acc.Status = model.AccountStatus(status)
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// AdjustBalances applies net balance deltas per account in one transaction.
func (s *SQLiteStorage) AdjustBalances(ctx context.Context, deltas map[int64]float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(deltas) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for accountID, delta := range deltas {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			delta, accountID); err != nil {
			return fmt.Errorf("failed to adjust balance for account %d: %w", accountID, err)
		}
	}

	return tx.Commit()
}
