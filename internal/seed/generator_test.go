package seed

import (
	"context"
	"testing"

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

func TestGenerator_Run(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	cfg := Config{
		Transactions: 200,
		DaysBack:     30,
		FraudRate:    0.2,
		Loans:        20,
		Customers:    10,
		Seed:         42,
	}
	require.NoError(t, New(store, cfg).Run(ctx))

	accounts, err := store.ActiveAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 10, "bootstrap creates one account per customer")

	// Transfers produce a paired row, so the total can exceed the
	// configured count but never falls below it.
	txns, err := store.RecentTransactions(ctx, 10000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(txns), cfg.Transactions)

	for _, txn := range txns {
		assert.Positive(t, txn.Amount)
		assert.True(t, txn.Channel.Valid())
		assert.False(t, txn.Time.IsZero())
		require.NotNil(t, txn.IsFraud, "every synthetic row carries a label")
	}

	loans, err := store.LoanStats(ctx)
	require.NoError(t, err)
	total := 0
	for _, stat := range loans {
		total += stat.Count
	}
	assert.Equal(t, cfg.Loans, total)
}

func TestGenerator_LabelsRoughlyMatchFraudRate(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Transactions = 1000
	cfg.Loans = 0
	require.NoError(t, New(store, cfg).Run(ctx))

	txns, err := store.RecentTransactions(ctx, 10000)
	require.NoError(t, err)

	fraud := 0
	for _, txn := range txns {
		if txn.IsFraud != nil && *txn.IsFraud {
			fraud++
		}
	}
	rate := float64(fraud) / float64(len(txns))
	assert.Greater(t, rate, 0.05)
	assert.Less(t, rate, 0.40)
}

func TestGenerator_TransferPairsBalance(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Transactions = 300
	cfg.Loans = 0
	require.NoError(t, New(store, cfg).Run(ctx))

	txns, err := store.RecentTransactions(ctx, 10000)
	require.NoError(t, err)

	outs, ins := 0, 0
	for _, txn := range txns {
		switch txn.Type {
		case model.TypeTransferOut:
			outs++
			assert.Positive(t, txn.CounterpartyAccount)
			assert.NotEqual(t, txn.AccountID, txn.CounterpartyAccount)
		case model.TypeTransferIn:
			ins++
			assert.Positive(t, txn.CounterpartyAccount)
		}
	}
	assert.Equal(t, outs, ins, "every transfer writes a paired row")
	assert.Positive(t, outs)
}

func TestNew_AppliesDefaults(t *testing.T) {
	g := New(nil, Config{FraudRate: 1.5})
	def := DefaultConfig()
	assert.Equal(t, def.Transactions, g.cfg.Transactions)
	assert.Equal(t, def.DaysBack, g.cfg.DaysBack)
	assert.Equal(t, def.FraudRate, g.cfg.FraudRate)
	assert.Equal(t, def.Customers, g.cfg.Customers)
}

func TestCapToBalance(t *testing.T) {
	assert.Equal(t, 500.0, capToBalance(500, 1000))
	assert.Equal(t, 1000.0, capToBalance(5000, 1000))
	// A drained account still allows a token withdrawal.
	assert.Equal(t, 100.0, capToBalance(5000, -200))
}
