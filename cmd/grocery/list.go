package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xndadelin/Grosharing/internal/spend"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the shopping list, budget and spending",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s (%d neighbors)\n\n", snap.House, len(snap.Neighbors))
	if len(snap.Items) == 0 {
		fmt.Fprintln(out, "The list is empty.")
	}
	for _, item := range snap.Items {
		fmt.Fprintln(out, formatItem(item))
	}

	usage := snap.Usage()
	fmt.Fprintf(out, "\nSpent $%s of $%s (%d%%)", snap.Spend.Total.StringFixed(2), snap.Budget.StringFixed(2), usage.PercentUsed)
	if usage.OverBudget {
		fmt.Fprintf(out, ", over budget by $%s\n", usage.Remaining.Neg().StringFixed(2))
	} else {
		fmt.Fprintf(out, ", $%s left\n", usage.Remaining.StringFixed(2))
	}

	for _, share := range spend.Shares(snap.Spend.PerUser) {
		fmt.Fprintf(out, "  %-20s $%8s %3d%%\n", share.UserName, share.TotalSpent.StringFixed(2), share.Percent)
	}
	return nil
}
