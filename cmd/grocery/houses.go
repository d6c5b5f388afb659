package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var housesCmd = &cobra.Command{
	Use:   "houses",
	Short: "List houses and your memberships",
	Args:  cobra.NoArgs,
	RunE:  runHouses,
}

var joinPassword string

var joinCmd = &cobra.Command{
	Use:   "join <house>",
	Short: "Join a house with its password",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func init() {
	joinCmd.Flags().StringVarP(&joinPassword, "password", "p", "", "house password (required)")
	_ = joinCmd.MarkFlagRequired("password")
}

func runHouses(cmd *cobra.Command, args []string) error {
	houses, err := newClient().ListHouses(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, h := range houses {
		mark := " "
		if h.Joined {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-10s %s\n", mark, h.Name, h.Location)
	}
	return nil
}

func runJoin(cmd *cobra.Command, args []string) error {
	n, err := newClient().Join(cmd.Context(), args[0], joinPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is a member of %s\n", n.FullName, n.House)
	return nil
}
