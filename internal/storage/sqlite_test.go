package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hollisreid/fraudwatch/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedAccount creates one customer and one account in the given region
// and returns the account ID.
func seedAccount(t *testing.T, store *SQLiteStorage, region string) int64 {
	t.Helper()
	ctx := context.Background()

	customers := []model.Customer{{Name: "Customer " + region, Region: region}}
	require.NoError(t, store.SaveCustomers(ctx, customers))
	require.Positive(t, customers[0].ID)

	accounts := []model.Account{{CustomerID: customers[0].ID, Balance: 5000}}
	require.NoError(t, store.SaveAccounts(ctx, accounts))
	require.Positive(t, accounts[0].ID)
	return accounts[0].ID
}

func testTxn(accountID int64, amount float64, at time.Time) model.Transaction {
	return model.Transaction{
		AccountID: accountID,
		Time:      at,
		Type:      model.TypeDeposit,
		Amount:    amount,
		Channel:   model.ChannelOnline,
		Location:  "Mumbai",
	}
}
