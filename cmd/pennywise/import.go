package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/ledger"
	"github.com/mtobin/pennywise/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from an OFX/QFX file",
		Long: `Parse a bank statement in OFX or QFX format and post each entry to a
user's ledger. Positive statement amounts become credits (and may clear
outstanding debts), negative amounts become debits.

Debits the budget cannot cover are skipped and reported at the end.`,
		RunE: runImport,
	}

	cmd.Flags().String("file", "", "OFX/QFX file to import (required)")
	cmd.Flags().String("user", "", "username owning the imported transactions (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	filePath, _ := cmd.Flags().GetString("file")
	username, _ := cmd.Flags().GetString("user")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	requests, err := ofx.NewParser().ParseFile(ctx, file)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Println("No transactions found in statement.")
		return nil
	}

	ldgr := ledger.New(store)
	bar := progressbar.Default(int64(len(requests)), "importing")

	var posted, skipped int
	for _, req := range requests {
		_ = bar.Add(1)

		_, err := ldgr.PostTransaction(ctx, user.ID, req)
		if errors.Is(err, common.ErrInsufficientFunds) {
			skipped++
			slog.Warn("Skipped debit exceeding budget",
				"title", req.Title,
				"amount", req.Amount.String())
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to post %q: %w", req.Title, err)
		}
		posted++
	}

	fmt.Printf("Imported %d transactions (%d skipped).\n", posted, skipped)
	return nil
}
