package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtobin/pennywise/internal/ledger"
)

func recomputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Check a user's budget against transaction history",
		Long: `Replay a user's ledger and compare the result with the stored budget.

The budget is maintained incrementally at posting time, so a crash or bug
can leave it out of sync with the transaction history. This command reports
the drift; with --repair it overwrites the stored budget with the replayed
value.`,
		RunE: runRecompute,
	}

	cmd.Flags().String("user", "", "username to check (required)")
	cmd.Flags().Bool("repair", false, "overwrite the stored budget with the replayed value")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("user")
	repair, _ := cmd.Flags().GetBool("repair")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	result, err := ledger.New(store).RecomputeBudget(ctx, user.ID, repair)
	if err != nil {
		return err
	}

	fmt.Printf("stored budget:   %s\n", result.Actual)
	fmt.Printf("replayed budget: %s\n", result.Expected)
	if result.Drift == 0 {
		fmt.Println("No drift detected.")
		return nil
	}

	fmt.Printf("drift:           %s\n", result.Drift)
	if result.Repaired {
		fmt.Println("Budget repaired.")
	} else {
		fmt.Println("Run with --repair to overwrite the stored budget.")
	}
	return nil
}
