package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var prApproveBodyFlag string

var prApproveCmd = &cobra.Command{
	Use:   "approve <number>",
	Short: "Approve a pull request",
	Args:  cobra.ExactArgs(1),
	RunE:  runPRApprove,
}

func init() {
	prApproveCmd.Flags().StringVar(&prApproveBodyFlag, "body", "", "Review comment to attach to the approval")
	prCmd.AddCommand(prApproveCmd)
}

func runPRApprove(cmd *cobra.Command, args []string) error {
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

	if err := app.prs.Approve(cmd.Context(), repo, number, prApproveBodyFlag); err != nil {
		return describeError(err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Approved %s#%d\n", repo, number)
	return err
}
