package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var prDiffCmd = &cobra.Command{
	Use:   "diff <number>",
	Short: "Show the diff of a pull request",
	Args:  cobra.ExactArgs(1),
	RunE:  runPRDiff,
}

func init() {
	prCmd.AddCommand(prDiffCmd)
}

func runPRDiff(cmd *cobra.Command, args []string) error {
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

	diff, err := app.prs.Diff(cmd.Context(), repo, number)
	if err != nil {
		return describeError(err)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
	return err
}
