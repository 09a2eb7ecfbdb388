package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication and rate-limit status",
	Long: `Check whether the stored credential is still accepted by GitHub,
and show the current API rate-limit window.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if !app.session.IsAuthenticated(cmd.Context()) {
		_, err := fmt.Fprintln(out, "Not logged in. Run `pullman auth login` to authenticate.")
		return err
	}

	user, err := app.session.CurrentUser(cmd.Context())
	if err != nil {
		return describeError(err)
	}
	fmt.Fprintf(out, "Logged in as %s", user.Login)
	if user.Name != "" {
		fmt.Fprintf(out, " (%s)", user.Name)
	}
	fmt.Fprintln(out)

	limits := app.client.RateLimit().Snapshot()
	if limits.Known {
		fmt.Fprintf(out, "Rate limit: %d/%d remaining, resets %s\n",
			limits.Remaining, limits.Limit, humanize.Time(time.Unix(limits.ResetAt, 0)))
	}
	return nil
}
