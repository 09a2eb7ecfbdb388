package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored GitHub credential",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	if !app.session.Logout() {
		return fmt.Errorf("failed to remove the stored credential")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return err
}
