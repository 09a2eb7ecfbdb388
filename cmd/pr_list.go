package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pullman-cli/pullman/internal/ghub"
)

var prListStateFlag string

var prListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pull requests",
	Long: `List pull requests for the current repository.

By default, lists open pull requests in a formatted table. Use --state to
list closed, merged, or draft pull requests instead.`,
	Args: cobra.NoArgs,
	RunE: runPRList,
}

func init() {
	prListCmd.Flags().StringVar(&prListStateFlag, "state", "open", "Filter by state: open, closed, merged, draft")
	prCmd.AddCommand(prListCmd)
}

func runPRList(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	repo, err := app.resolveRepo(prRepoFlag)
	if err != nil {
		return describeError(err)
	}

	state := ghub.PRState(strings.ToUpper(prListStateFlag))
	if !state.IsValid() {
		return fmt.Errorf("invalid state %q, expected open, closed, merged, or draft", prListStateFlag)
	}

	prs, err := app.prs.List(cmd.Context(), repo, ghub.ListOptions{
		State: state,
		Limit: app.cfg.PR.Limit,
	})
	if err != nil {
		return describeError(err)
	}

	return outputPRListTable(cmd, prs)
}

// outputPRListTable renders a lipgloss table to stdout.
func outputPRListTable(cmd *cobra.Command, prs []ghub.PullRequest) error {
	if len(prs) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No pull requests found.")
		return err
	}

	// Define colors
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	// Define styles
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle := cellStyle.Foreground(gray)
	evenRowStyle := cellStyle.Foreground(lightGray)

	// Build rows
	rows := make([][]string, len(prs))
	for i, pr := range prs {
		rows[i] = []string{
			fmt.Sprintf("%d", pr.Number),
			truncateString(pr.Title, 40),
			pr.AuthorLogin,
			truncateString(pr.BranchName, 30),
			strings.ToLower(string(pr.State)),
			humanize.Time(pr.UpdatedAt),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return evenRowStyle
			default:
				return oddRowStyle
			}
		}).
		Headers("#", "Title", "Author", "Branch", "State", "Updated").
		Rows(rows...)

	_, err := fmt.Fprintln(cmd.OutOrStdout(), t)
	return err
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
