package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget [amount]",
	Short: "Show or set the house budget",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBudget,
}

func runBudget(cmd *cobra.Command, args []string) error {
	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		b, err := st.SetBudget(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Budget set to $%s\n", b.StringFixed(2))
		return nil
	}

	u := st.Snapshot().Usage()
	fmt.Fprintf(out, "Budget $%s, spent $%s (%d%%)\n", u.Budget.StringFixed(2), u.Spent.StringFixed(2), u.PercentUsed)
	return nil
}
