package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisreid/fraudwatch/internal/model"
	"github.com/hollisreid/fraudwatch/internal/storage"
)

func testStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportAll(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	customers := []model.Customer{{Name: "Ravi", Region: "West"}}
	require.NoError(t, store.SaveCustomers(ctx, customers))
	accounts := []model.Account{{CustomerID: customers[0].ID, Balance: 5000}}
	require.NoError(t, store.SaveAccounts(ctx, accounts))

	day := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		{AccountID: accounts[0].ID, Time: day, Type: model.TypeDeposit, Amount: 150.5, Channel: model.ChannelMobile},
		{AccountID: accounts[0].ID, Time: day.Add(time.Hour), Type: model.TypeWithdraw, Amount: 49.5, Channel: model.ChannelATM},
	}))

	txns, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, store.SaveScores(ctx, []model.Score{
		{TxnID: txns[0].ID, Probability: 0.8, Flagged: true, Reason: model.ReasonZScoreHigh, RunID: "run-1"},
	}))

	require.NoError(t, store.SaveLoans(ctx, []model.Loan{
		{CustomerID: customers[0].ID, Amount: 120000, InterestRate: 9.0, TenureMonths: 24, Status: model.LoanApproved},
	}))

	dir := t.TempDir()
	require.NoError(t, New(store, dir).ExportAll(ctx))

	daily := readCSV(t, filepath.Join(dir, TransactionsDailyFile))
	require.Len(t, daily, 2)
	assert.Equal(t, []string{"day", "txn_count", "total_amount"}, daily[0])
	assert.Equal(t, []string{"2026-04-10", "2", "200.00"}, daily[1])

	regions := readCSV(t, filepath.Join(dir, FraudByRegionFile))
	require.Len(t, regions, 2)
	assert.Equal(t, []string{"region", "avg_fraud_prob", "flags", "scored_rows"}, regions[0])
	assert.Equal(t, []string{"West", "0.8000", "1", "1"}, regions[1])

	loans := readCSV(t, filepath.Join(dir, LoanStatsFile))
	require.Len(t, loans, 2)
	assert.Equal(t, []string{"status", "cnt", "total_amount"}, loans[0])
	assert.Equal(t, []string{"APPROVED", "1", "120000.00"}, loans[1])
}

func TestExportAll_EmptyStore(t *testing.T) {
	store := testStorage(t)
	dir := t.TempDir()

	require.NoError(t, New(store, dir).ExportAll(context.Background()))

	// Header-only files are still written so downstream consumers see
	// a consistent shape.
	for _, name := range []string{TransactionsDailyFile, FraudByRegionFile, LoanStatsFile} {
		records := readCSV(t, filepath.Join(dir, name))
		assert.Len(t, records, 1, "expected header-only %s", name)
	}
}
