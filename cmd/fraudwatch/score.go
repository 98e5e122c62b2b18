package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollisreid/fraudwatch/internal/cli"
	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/engine"
	"github.com/hollisreid/fraudwatch/internal/isoforest"
)

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run the anomaly scoring loop",
		Long: `Score the most recent transaction window with an isolation forest and
append one score record per transaction. By default this polls forever
on a fixed interval; use --once for a single pass.`,
		RunE: runScore,
	}

	// Flags
	cmd.Flags().Bool("once", false, "Run a single scoring pass and exit")
	cmd.Flags().Duration("interval", 10*time.Second, "Wait between scoring passes")
	cmd.Flags().Int("window", 20000, "Maximum transactions per scoring window")
	cmd.Flags().Float64("flag-threshold", 0.65, "Probability above which a transaction is flagged")
	cmd.Flags().Float64("z-threshold", 2.5, "Absolute z-score above which the reason becomes the z-score alert")

	// Bind to viper
	_ = viper.BindPFlag("scoring.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("scoring.window", cmd.Flags().Lookup("window"))
	_ = viper.BindPFlag("scoring.flag_threshold", cmd.Flags().Lookup("flag-threshold"))
	_ = viper.BindPFlag("scoring.z_threshold", cmd.Flags().Lookup("z-threshold"))

	return cmd
}

func scoringConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.WindowSize = viper.GetInt("scoring.window")
	cfg.Interval = viper.GetDuration("scoring.interval")
	cfg.FlagThreshold = viper.GetFloat64("scoring.flag_threshold")
	cfg.ZThreshold = viper.GetFloat64("scoring.z_threshold")

	if cfg.FlagThreshold <= 0 || cfg.FlagThreshold > 1 {
		return cfg, fmt.Errorf("%w: scoring.flag_threshold must be in (0, 1], got %v",
			common.ErrInvalidConfig, cfg.FlagThreshold)
	}
	if cfg.ZThreshold <= 0 {
		return cfg, fmt.Errorf("%w: scoring.z_threshold must be positive, got %v",
			common.ErrInvalidConfig, cfg.ZThreshold)
	}

	forest := isoforest.DefaultConfig()
	if v := viper.GetInt("model.trees"); v > 0 {
		forest.Trees = v
	}
	if v := viper.GetFloat64("model.contamination"); v > 0 {
		if v >= 0.5 {
			return cfg, fmt.Errorf("%w: model.contamination must be below 0.5, got %v",
				common.ErrInvalidConfig, v)
		}
		forest.Contamination = v
	}
	if viper.IsSet("model.seed") {
		forest.Seed = viper.GetInt64("model.seed")
	}
	cfg.Forest = forest
	return cfg, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	once, _ := cmd.Flags().GetBool("once")
	ctx := cmd.Context()

	cfg, err := scoringConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(store, store, cfg)

	if once {
		flagged, err := eng.RunOnce(ctx)
		if err != nil {
			return err
		}
		if flagged > 0 {
			slog.Warn(cli.FormatAlert(fmt.Sprintf("%d suspicious transactions flagged", flagged)))
		} else {
			slog.Info(cli.FormatSuccess("No suspicious transactions in this window"))
		}
		return nil
	}

	slog.Info(cli.FormatTitle("Fraud scoring loop. Ctrl+C to stop."))
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
