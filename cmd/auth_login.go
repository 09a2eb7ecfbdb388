package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/auth"
)

var loginWithTokenFlag bool

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to GitHub",
	Long: `Log in to GitHub using the browser-based device flow.

With --with-token, a personal access token is read from standard input
instead:

  echo $GITHUB_TOKEN | pullman auth login --with-token`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginWithTokenFlag, "with-token", false, "Read a personal access token from stdin")
	authCmd.AddCommand(authLoginCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	flow := app.newFlow(
		auth.WithOutput(cmd.OutOrStdout()),
		auth.WithInput(cmd.InOrStdin()),
	)

	var user api.User
	if loginWithTokenFlag {
		token, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && token == "" {
			return fmt.Errorf("failed to read token from stdin: %w", err)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return fmt.Errorf("no token provided on stdin")
		}
		user, err = flow.LoginWithToken(cmd.Context(), token)
		if err != nil {
			return describeError(err)
		}
	} else {
		user, err = flow.LoginWithBrowser(cmd.Context())
		if err != nil {
			return describeError(err)
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Login)
	return err
}
