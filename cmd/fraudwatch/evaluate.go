package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollisreid/fraudwatch/internal/cli"
	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/evaluate"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate scoring quality against derived ground truth",
		Long: `Collapse the score history to the latest record per transaction,
derive ground-truth labels, and compute classification metrics.

Writes confusion_matrix.csv, metrics.json, roc.png and pr_curve.png
into the export directory, overwriting the previous report.`,
		RunE: runEvaluate,
	}

	// Flags
	cmd.Flags().Float64("threshold", 0, "Override prediction threshold; if set, predictions become probability >= threshold instead of the stored flag")
	cmd.Flags().String("ground-truth", evaluate.GroundTruthReason, "Ground truth source (reason, transaction)")
	cmd.Flags().String("keyword", evaluate.DefaultKeyword, "Keyword marking true fraud in the reason field")
	cmd.Flags().String("export-dir", evaluate.DefaultExportDir, "Directory for report artifacts")

	// Bind to viper
	_ = viper.BindPFlag("evaluate.ground_truth", cmd.Flags().Lookup("ground-truth"))
	_ = viper.BindPFlag("evaluate.keyword", cmd.Flags().Lookup("keyword"))
	_ = viper.BindPFlag("evaluate.export_dir", cmd.Flags().Lookup("export-dir"))

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cfg := evaluate.Config{
		Keyword:     viper.GetString("evaluate.keyword"),
		GroundTruth: viper.GetString("evaluate.ground_truth"),
	}
	if cfg.GroundTruth != evaluate.GroundTruthReason && cfg.GroundTruth != evaluate.GroundTruthTransaction {
		return fmt.Errorf("%w: evaluate.ground_truth must be %q or %q, got %q",
			common.ErrInvalidConfig, evaluate.GroundTruthReason, evaluate.GroundTruthTransaction, cfg.GroundTruth)
	}
	if cmd.Flags().Changed("threshold") {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		cfg.Threshold = &threshold
	} else if viper.IsSet("evaluate.threshold") {
		threshold := viper.GetFloat64("evaluate.threshold")
		cfg.Threshold = &threshold
	}
	if cfg.Threshold != nil && (*cfg.Threshold < 0 || *cfg.Threshold > 1) {
		return fmt.Errorf("%w: threshold must be in [0, 1], got %v",
			common.ErrInvalidConfig, *cfg.Threshold)
	}

	report, err := evaluate.New(store, store, cfg).Evaluate(ctx)
	if err != nil {
		if errors.Is(err, evaluate.ErrNoScores) {
			return common.NewUserError("No score history yet; run `fraudwatch score --once` first", err)
		}
		return err
	}

	exportDir := viper.GetString("evaluate.export_dir")
	if err := evaluate.WriteArtifacts(report, exportDir); err != nil {
		return err
	}

	fmt.Println(cli.RenderBox("Evaluation", summarize(report)))
	fmt.Println(cli.SubtleStyle.Render("Artifacts: " + exportDir))
	return nil
}

func summarize(report *evaluate.Report) string {
	cm := report.Confusion
	return fmt.Sprintf(
		`Rows evaluated:  %d

            Pred 0   Pred 1
Actual 0    %6d   %6d
Actual 1    %6d   %6d

Accuracy:        %.4f
Precision (1):   %.4f
Recall    (1):   %.4f
F1-score  (1):   %.4f
ROC AUC:         %.4f`,
		report.Rows,
		cm.TN, cm.FP,
		cm.FN, cm.TP,
		report.Accuracy,
		report.Fraud.Precision,
		report.Fraud.Recall,
		report.Fraud.F1,
		report.AUC,
	)
}
