package cmd

import (
	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "n/a"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "pullman",
	Short: "GitHub pull request companion",
	Long:  `Pullman reviews GitHub pull requests from the terminal.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verboseFlag {
			clog.SetLevel(clog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
