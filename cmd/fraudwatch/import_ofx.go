package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollisreid/fraudwatch/internal/cli"
	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/ingest"
	"github.com/hollisreid/fraudwatch/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.ofx>",
		Short: "Import transactions from an OFX/QFX file",
		Long: `Parse an OFX/QFX bank statement and insert its transactions for the
given local account so they get picked up by the next scoring pass.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Int64("account", 0, "Local account ID to attach imported transactions to")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	accountID, _ := cmd.Flags().GetInt64("account")

	f, err := os.Open(args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not open statement file %s", args[0]), err)
	}
	defer func() { _ = f.Close() }()

	txns, err := ingest.NewOFXParser(accountID).ParseFile(f)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		slog.Warn(cli.FormatWarning("No transactions found in file"))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := requireAccount(ctx, store, accountID); err != nil {
		return err
	}

	if err := store.SaveTransactions(ctx, txns); err != nil {
		return fmt.Errorf("failed to save imported transactions: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", len(txns))))
	return nil
}

// requireAccount ensures the target account exists and is active before
// attaching imported rows to it.
func requireAccount(ctx context.Context, store service.Storage, accountID int64) error {
	accounts, err := store.ActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up accounts: %w", err)
	}
	for _, acc := range accounts {
		if acc.ID == accountID {
			return nil
		}
	}
	return common.NewUserError(
		fmt.Sprintf("No active account with ID %d; seed or create one first", accountID),
		fmt.Errorf("%w: account %d", common.ErrNotFound, accountID),
	)
}
