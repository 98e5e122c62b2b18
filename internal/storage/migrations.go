package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Customers, accounts and transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS customers (
					customer_id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					region TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					account_id INTEGER PRIMARY KEY AUTOINCREMENT,
					customer_id INTEGER NOT NULL,
					balance REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'ACTIVE',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(customer_id)
				)`,
				`CREATE INDEX idx_accounts_customer ON accounts(customer_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					txn_id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					txn_time DATETIME NOT NULL,
					txn_type TEXT NOT NULL,
					amount REAL NOT NULL,
					counterparty_account INTEGER,
					channel TEXT NOT NULL,
					location TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (account_id) REFERENCES accounts(account_id)
				)`,
				`CREATE INDEX idx_transactions_time ON transactions(txn_time)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Append-only fraud score history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS fraud_scores (
					score_id INTEGER PRIMARY KEY AUTOINCREMENT,
					txn_id INTEGER NOT NULL,
					anomaly_score REAL NOT NULL,
					flagged INTEGER NOT NULL DEFAULT 0,
					reason TEXT NOT NULL,
					run_id TEXT NOT NULL DEFAULT '',
					scored_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (txn_id) REFERENCES transactions(txn_id)
				)`,
				`CREATE INDEX idx_fraud_scores_txn ON fraud_scores(txn_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Loan applications",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS loans (
					loan_id INTEGER PRIMARY KEY AUTOINCREMENT,
					customer_id INTEGER NOT NULL,
					amount REAL NOT NULL,
					interest_rate REAL NOT NULL,
					tenure_months INTEGER NOT NULL,
					status TEXT NOT NULL DEFAULT 'APPLIED',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(customer_id)
				)
			`)
			return err
		},
	},
	{
		Version:     4,
		Description: "Optional authoritative fraud label on transactions",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE transactions ADD COLUMN is_fraud INTEGER`)
			return err
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// SchemaVersion returns the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
