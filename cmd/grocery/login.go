package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <provider-token>",
	Short: "Exchange an identity-provider token for a session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogin(cmd *cobra.Command, args []string) error {
	c := newClient()
	sess, err := c.SignIn(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s\n", sess.User.FullName)
	fmt.Fprintf(out, "export GROSHARING_TOKEN=%s\n", sess.AccessToken)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := newClient().SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}
