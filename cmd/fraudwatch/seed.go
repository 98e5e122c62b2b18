package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollisreid/fraudwatch/internal/cli"
	"github.com/hollisreid/fraudwatch/internal/seed"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic banking data",
		Long: `Fill the database with deterministic synthetic customers, accounts,
transactions and loans so the scoring pipeline has data to work with.
A fraction of generated transactions gets fraud-like amounts.`,
		RunE: runSeed,
	}

	// Flags
	cmd.Flags().Int("transactions", 1500, "Approximate number of transaction events to add")
	cmd.Flags().Int("days-back", 60, "Spread transactions over the last N days")
	cmd.Flags().Float64("fraud-rate", 0.20, "Fraction of transactions made to look suspicious")
	cmd.Flags().Int("loans", 180, "Number of synthetic loan applications")
	cmd.Flags().Int64("seed", 42, "Random seed")

	// Bind to viper
	_ = viper.BindPFlag("seed.transactions", cmd.Flags().Lookup("transactions"))
	_ = viper.BindPFlag("seed.days_back", cmd.Flags().Lookup("days-back"))
	_ = viper.BindPFlag("seed.fraud_rate", cmd.Flags().Lookup("fraud-rate"))
	_ = viper.BindPFlag("seed.loans", cmd.Flags().Lookup("loans"))
	_ = viper.BindPFlag("seed.seed", cmd.Flags().Lookup("seed"))

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cfg := seed.Config{
		Transactions: viper.GetInt("seed.transactions"),
		DaysBack:     viper.GetInt("seed.days_back"),
		FraudRate:    viper.GetFloat64("seed.fraud_rate"),
		Loans:        viper.GetInt("seed.loans"),
		Seed:         viper.GetInt64("seed.seed"),
	}

	if err := seed.New(store, cfg).Run(ctx); err != nil {
		return err
	}

	slog.Info(cli.FormatSuccess("Synthetic data ready"))
	return nil
}
