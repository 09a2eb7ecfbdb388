package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var prViewCmd = &cobra.Command{
	Use:   "view <number>",
	Short: "Show details of a pull request",
	Args:  cobra.ExactArgs(1),
	RunE:  runPRView,
}

func init() {
	prCmd.AddCommand(prViewCmd)
}

func runPRView(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid PR number: %s", args[0])
	}

	app, err := newAppContext()
	if err != nil {
		return err
	}

	repo, err := app.resolveRepo(prRepoFlag)
	if err != nil {
		return describeError(err)
	}

	pr, err := app.prs.Get(cmd.Context(), repo, number)
	if err != nil {
		return describeError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%d %s\n", pr.Number, pr.Title)
	fmt.Fprintf(out, "%s • %s • opened %s by %s\n",
		strings.ToLower(string(pr.State)), pr.BranchName, humanize.Time(pr.CreatedAt), pr.AuthorLogin)
	fmt.Fprintf(out, "+%d -%d across %d files\n", pr.LinesAdded, pr.LinesDeleted, pr.FilesChanged)
	if pr.Body != "" {
		fmt.Fprintf(out, "\n%s\n", pr.Body)
	}
	if pr.URL != "" {
		fmt.Fprintf(out, "\n%s\n", pr.URL)
	}
	return nil
}
