// Package engine implements the anomaly scoring pass and the polling
// loop that drives it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/feature"
	"github.com/hollisreid/fraudwatch/internal/isoforest"
	"github.com/hollisreid/fraudwatch/internal/service"
)

// Config holds configuration options for the scoring engine.
type Config struct {
	WindowSize    int
	Interval      time.Duration
	FlagThreshold float64
	ZThreshold    float64
	Forest        isoforest.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:    20000,
		Interval:      10 * time.Second,
		FlagThreshold: 0.65,
		ZThreshold:    2.5,
		Forest:        isoforest.DefaultConfig(),
	}
}

// ScoringEngine orchestrates one scoring pass: pull a transaction
// window, build features, fit and score an isolation forest, normalize
// and flag, and append the batch to the score sink.
type ScoringEngine struct {
	source service.TransactionSource
	sink   service.ScoreSink
	cfg    Config
}

// New creates a scoring engine with explicit dependencies.
func New(source service.TransactionSource, sink service.ScoreSink, cfg Config) *ScoringEngine {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &ScoringEngine{
		source: source,
		sink:   sink,
		cfg:    cfg,
	}
}

// RunOnce performs a single scoring pass and returns the number of
// transactions flagged. A window with zero transactions is a no-op,
// not an error: nothing is fitted and nothing is written.
func (e *ScoringEngine) RunOnce(ctx context.Context) (int, error) {
	runID := uuid.NewString()

	txns, err := e.source.RecentTransactions(ctx, e.cfg.WindowSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
	}
	if len(txns) == 0 {
		slog.Debug("Empty transaction window, skipping pass", "run_id", runID)
		return 0, nil
	}

	matrix, err := feature.Build(txns)
	if err != nil {
		return 0, fmt.Errorf("failed to build features: %w", err)
	}

	forest := isoforest.New(e.cfg.Forest)
	if err := forest.Fit(matrix.Rows); err != nil {
		return 0, fmt.Errorf("failed to fit forest: %w", err)
	}
	raw, err := forest.Scores(matrix.Rows)
	if err != nil {
		return 0, fmt.Errorf("failed to score window: %w", err)
	}

	probs := Normalize(raw)
	scores := buildScores(matrix, probs, runID, e.cfg.FlagThreshold, e.cfg.ZThreshold)

	if err := e.sink.SaveScores(ctx, scores); err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrSinkWrite, err)
	}

	flagged := 0
	for i := range scores {
		if scores[i].Flagged {
			flagged++
		}
	}

	slog.Info("Scoring pass complete",
		"run_id", runID,
		"window", len(txns),
		"flagged", flagged)
	return flagged, nil
}

// Run executes scoring passes on a fixed interval until the context is
// canceled. Failed passes are logged and the loop proceeds to the next
// scheduled attempt; an in-flight pass always completes before the
// loop observes cancellation.
func (e *ScoringEngine) Run(ctx context.Context) error {
	slog.Info("Starting scoring loop",
		"interval", e.cfg.Interval,
		"window_size", e.cfg.WindowSize)

	for {
		flagged, err := e.RunOnce(ctx)
		if err != nil {
			common.LogError(err, "Scoring pass failed", nil)
		} else if flagged > 0 {
			slog.Warn("New suspicious transactions", "flagged", flagged)
		}

		select {
		case <-ctx.Done():
			slog.Info("Scoring loop stopped")
			return ctx.Err()
		case <-time.After(e.cfg.Interval):
		}
	}
}
