package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pushTokenCmd = &cobra.Command{
	Use:   "push-token <token>",
	Short: "Register a device push token for the house",
	Args:  cobra.ExactArgs(1),
	RunE:  runPushToken,
}

func runPushToken(cmd *cobra.Command, args []string) error {
	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	if !st.RegisterPushToken(cmd.Context(), args[0]) {
		return fmt.Errorf("push token was not registered")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Push token registered")
	return nil
}
