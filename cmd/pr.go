package cmd

import "github.com/spf13/cobra"

var prRepoFlag string

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Work with pull requests",
}

func init() {
	prCmd.PersistentFlags().StringVar(&prRepoFlag, "repo", "", "Repository in owner/name form (default: detect from origin remote)")
	rootCmd.AddCommand(prCmd)
}
