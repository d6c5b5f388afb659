// Command grocery is a terminal client for a Grosharing server.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xndadelin/Grosharing/internal/client"
	"github.com/xndadelin/Grosharing/internal/config"
	"github.com/xndadelin/Grosharing/internal/house"
	"github.com/xndadelin/Grosharing/internal/logging"
	"github.com/xndadelin/Grosharing/internal/model"
)

var (
	serverURL string
	token     string
	houseName string
	verbose   bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "grocery",
	Short:         "Shared household grocery list",
	Long:          "grocery manages a house's shared shopping list, budget and chat on a Grosharing server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := config.LoadClient().LogLevel
		if verbose {
			level = "debug"
		}
		logger = logging.Setup(level, "text")
	},
}

func init() {
	cfg := config.LoadClient()

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", cfg.ServerURL, "server URL (GROSHARING_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", cfg.Token, "session token (GROSHARING_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&houseName, "house", "H", "", "house name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(housesCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(uncompleteCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(pushTokenCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, token, logger.With("component", "client"))
}

func requireHouse() error {
	if houseName == "" {
		return fmt.Errorf("--house is required")
	}
	return nil
}

// loadStore loads the house's list, roster and budget.
func loadStore(ctx context.Context) (*house.Store, error) {
	if err := requireHouse(); err != nil {
		return nil, err
	}
	// The server notifies the house on add and completion.
	st := house.NewStore(newClient(), nil, logger.With("component", "house"))
	if err := st.LoadAll(ctx, houseName); err != nil {
		return nil, err
	}
	if st.Snapshot().User == nil {
		return nil, fmt.Errorf("%w: run grocery login first", house.ErrNotSignedIn)
	}
	return st, nil
}

func formatItem(item model.GroceryItem) string {
	mark := " "
	if item.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %4d  %s", mark, item.ID, item.ItemName)
	if item.Quantity > 1 {
		line += fmt.Sprintf(" x%d", item.Quantity)
	}
	if item.Price.Valid {
		line += " $" + item.Price.Decimal.StringFixed(2)
	}
	if item.Completed && item.CompletedBy != nil {
		line += fmt.Sprintf("  (bought by %s)", *item.CompletedBy)
	} else if item.AddedBy != "" {
		line += fmt.Sprintf("  (added by %s)", item.AddedBy)
	}
	return line
}
