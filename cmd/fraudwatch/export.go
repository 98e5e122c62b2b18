package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollisreid/fraudwatch/internal/cli"
	"github.com/hollisreid/fraudwatch/internal/evaluate"
	"github.com/hollisreid/fraudwatch/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export aggregate CSV reports",
		Long: `Write aggregate CSV files (daily transaction volume, fraud by region,
loan statistics) for use in external analysis tools.`,
		RunE: runExport,
	}

	cmd.Flags().String("dir", evaluate.DefaultExportDir, "Directory for exported CSV files")
	_ = viper.BindPFlag("export.dir", cmd.Flags().Lookup("dir"))

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	dir := viper.GetString("export.dir")
	if err := export.New(store, dir).ExportAll(ctx); err != nil {
		return err
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("All exports written to %s", dir)))
	return nil
}
