package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisreid/fraudwatch/internal/model"
)

func TestSaveScores_RoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	accountID := seedAccount(t, store, "North")

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTxn(accountID, 100, time.Now()),
		testTxn(accountID, 5000, time.Now()),
	}))
	txns, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	batch := []model.Score{
		{TxnID: txns[0].ID, Probability: 0.92, Flagged: true, Reason: model.ReasonZScoreHigh, RunID: "run-1"},
		{TxnID: txns[1].ID, Probability: 0.13, Flagged: false, Reason: model.ReasonIsolationForest, RunID: "run-1"},
	}
	require.NoError(t, store.SaveScores(ctx, batch))

	scores, err := store.AllScores(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Less(t, scores[0].ID, scores[1].ID, "history is ordered by score id")
	assert.Equal(t, txns[0].ID, scores[0].TxnID)
	assert.InDelta(t, 0.92, scores[0].Probability, 1e-9)
	assert.True(t, scores[0].Flagged)
	assert.Equal(t, model.ReasonZScoreHigh, scores[0].Reason)
	assert.Equal(t, "run-1", scores[0].RunID)
	assert.False(t, scores[0].ScoredAt.IsZero())
}

func TestSaveScores_AppendOnly(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	accountID := seedAccount(t, store, "North")

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTxn(accountID, 100, time.Now()),
	}))
	txns, err := store.RecentTransactions(ctx, 1)
	require.NoError(t, err)

	// Re-scoring the same transaction appends a new row instead of
	// replacing the old one.
	first := []model.Score{{TxnID: txns[0].ID, Probability: 0.3, Reason: model.ReasonIsolationForest, RunID: "run-1"}}
	second := []model.Score{{TxnID: txns[0].ID, Probability: 0.8, Flagged: true, Reason: model.ReasonZScoreHigh, RunID: "run-2"}}
	require.NoError(t, store.SaveScores(ctx, first))
	require.NoError(t, store.SaveScores(ctx, second))

	scores, err := store.AllScores(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "run-1", scores[0].RunID)
	assert.Equal(t, "run-2", scores[1].RunID)
}

func TestSaveScores_Validation(t *testing.T) {
	tests := []struct {
		name  string
		score model.Score
	}{
		{"zero txn id", model.Score{Probability: 0.5, Reason: "r"}},
		{"probability above one", model.Score{TxnID: 1, Probability: 1.5, Reason: "r"}},
		{"negative probability", model.Score{TxnID: 1, Probability: -0.1, Reason: "r"}},
		{"missing reason", model.Score{TxnID: 1, Probability: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStorage(t)
			err := store.SaveScores(context.Background(), []model.Score{tt.score})
			require.ErrorIs(t, err, ErrInvalidScore)

			scores, err := store.AllScores(context.Background())
			require.NoError(t, err)
			assert.Empty(t, scores, "a rejected batch writes nothing")
		})
	}
}

func TestSaveScores_InvalidRowRejectsWholeBatch(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	batch := []model.Score{
		{TxnID: 1, Probability: 0.5, Reason: model.ReasonIsolationForest, RunID: "run-1"},
		{TxnID: 2, Probability: 2.0, Reason: model.ReasonIsolationForest, RunID: "run-1"},
	}
	require.ErrorIs(t, store.SaveScores(ctx, batch), ErrInvalidScore)

	scores, err := store.AllScores(ctx)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestLatestLabels(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	accountID := seedAccount(t, store, "North")

	fraud, legit := true, false
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		{AccountID: accountID, Time: time.Now(), Type: model.TypeDeposit, Amount: 100, Channel: model.ChannelATM, IsFraud: &fraud},
		{AccountID: accountID, Time: time.Now(), Type: model.TypeDeposit, Amount: 200, Channel: model.ChannelATM, IsFraud: &legit},
		{AccountID: accountID, Time: time.Now(), Type: model.TypeDeposit, Amount: 300, Channel: model.ChannelATM},
	}))
	txns, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	var batch []model.Score
	for _, txn := range txns {
		batch = append(batch, model.Score{
			TxnID: txn.ID, Probability: 0.5, Reason: model.ReasonIsolationForest, RunID: "run-1",
		})
	}
	require.NoError(t, store.SaveScores(ctx, batch))

	labels, err := store.LatestLabels(ctx)
	require.NoError(t, err)
	require.Len(t, labels, 2, "only labeled transactions appear")

	fraudCount := 0
	for _, label := range labels {
		if label {
			fraudCount++
		}
	}
	assert.Equal(t, 1, fraudCount)
}

func TestLatestLabels_NoLabels(t *testing.T) {
	store := newTestStorage(t)

	labels, err := store.LatestLabels(context.Background())
	require.NoError(t, err)
	assert.Nil(t, labels, "nil map signals keyword fallback")
}
