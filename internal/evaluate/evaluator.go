// Package evaluate implements the offline evaluation pipeline: it
// collapses the score history to the latest record per transaction,
// derives ground truth, and computes classification metrics and curves.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hollisreid/fraudwatch/internal/model"
	"github.com/hollisreid/fraudwatch/internal/service"
)

// Ground truth source selectors.
const (
	GroundTruthReason      = "reason"
	GroundTruthTransaction = "transaction"
)

// DefaultKeyword marks a latest score record's transaction as true
// fraud when it appears in the reason field (case-insensitive).
const DefaultKeyword = "amount z-score high"

// Config holds evaluator options.
type Config struct {
	// Keyword for reason-derived ground truth.
	Keyword string
	// GroundTruth selects "reason" (default) or "transaction".
	GroundTruth string
	// Threshold, when non-nil, rebuilds predictions from the stored
	// probability (>= threshold) instead of using the stored flag.
	Threshold *float64
}

// Report is the full evaluation result, regenerated wholesale on each
// run.
type Report struct {
	Confusion ConfusionMatrix
	Fraud     ClassMetrics
	Legit     ClassMetrics
	ROC       Curve
	PR        Curve
	Accuracy  float64
	AUC       float64
	Rows      int
}

// ErrNoScores is returned when the score history is empty.
var ErrNoScores = errors.New("no scores to evaluate")

// Evaluator is a one-shot batch job over the persisted score history.
type Evaluator struct {
	reader service.ScoreReader
	truth  service.GroundTruth
	cfg    Config
}

// New creates an evaluator. truth may be nil when no authoritative
// ground-truth collaborator exists; the keyword fallback then always
// applies.
func New(reader service.ScoreReader, truth service.GroundTruth, cfg Config) *Evaluator {
	if cfg.Keyword == "" {
		cfg.Keyword = DefaultKeyword
	}
	if cfg.GroundTruth == "" {
		cfg.GroundTruth = GroundTruthReason
	}
	return &Evaluator{
		reader: reader,
		truth:  truth,
		cfg:    cfg,
	}
}

// LatestPerTransaction collapses a score history to exactly one row
// per transaction: the row with the greatest score ID wins. The result
// is ordered by transaction ID for determinism.
func LatestPerTransaction(scores []model.Score) []model.Score {
	latestByTxn := make(map[int64]model.Score)
	for _, sc := range scores {
		if cur, ok := latestByTxn[sc.TxnID]; !ok || sc.ID > cur.ID {
			latestByTxn[sc.TxnID] = sc
		}
	}

	latest := make([]model.Score, 0, len(latestByTxn))
	for _, sc := range latestByTxn {
		latest = append(latest, sc)
	}
	sort.Slice(latest, func(a, b int) bool {
		return latest[a].TxnID < latest[b].TxnID
	})
	return latest
}

// MatchesKeyword reports whether a reason marks its transaction as
// true fraud under the keyword rule (case-insensitive substring).
func MatchesKeyword(reason, keyword string) bool {
	return strings.Contains(strings.ToLower(reason), strings.ToLower(keyword))
}

// Evaluate reads the score history, derives labels and predictions,
// and computes the full metric set.
func (ev *Evaluator) Evaluate(ctx context.Context) (*Report, error) {
	scores, err := ev.reader.AllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read score history: %w", err)
	}

	latest := LatestPerTransaction(scores)
	if len(latest) == 0 {
		return nil, ErrNoScores
	}

	yTrue := ev.groundTruth(ctx, latest)
	yPred := ev.predictions(latest)

	probs := make([]float64, len(latest))
	for i := range latest {
		probs[i] = latest[i].Probability
	}

	cm := Confusion(yTrue, yPred)
	roc := ROC(yTrue, probs)

	return &Report{
		Confusion: cm,
		Accuracy:  cm.Accuracy(),
		Fraud:     cm.FraudMetrics(),
		Legit:     cm.LegitMetrics(),
		ROC:       roc,
		AUC:       AUC(roc),
		PR:        PrecisionRecall(yTrue, probs),
		Rows:      len(latest),
	}, nil
}

// groundTruth derives true labels for the dedup'd rows. The
// authoritative source is used only when explicitly selected and
// available; any failure or absence falls back to the keyword rule and
// is never fatal.
func (ev *Evaluator) groundTruth(ctx context.Context, latest []model.Score) []bool {
	var labels map[int64]bool
	if ev.cfg.GroundTruth == GroundTruthTransaction && ev.truth != nil {
		var err error
		labels, err = ev.truth.LatestLabels(ctx)
		if err != nil {
			slog.Warn("Authoritative ground truth unavailable, falling back to reason keyword",
				"error", err)
			labels = nil
		} else if labels == nil {
			slog.Warn("No authoritative fraud labels present, falling back to reason keyword")
		}
	}

	yTrue := make([]bool, len(latest))
	for i := range latest {
		if label, ok := labels[latest[i].TxnID]; ok {
			yTrue[i] = label
			continue
		}
		yTrue[i] = MatchesKeyword(latest[i].Reason, ev.cfg.Keyword)
	}
	return yTrue
}

// predictions uses the stored flag, or rebuilds predictions from the
// stored probability when an override threshold is configured.
func (ev *Evaluator) predictions(latest []model.Score) []bool {
	yPred := make([]bool, len(latest))
	for i := range latest {
		if ev.cfg.Threshold != nil {
			yPred[i] = latest[i].Probability >= *ev.cfg.Threshold
		} else {
			yPred[i] = latest[i].Flagged
		}
	}
	return yPred
}
