package cmd

import (
	"fmt"
	"os"

	"AriaVault/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ariavault",
	Short: "AriaVault is a private audio catalog with signed playback URLs.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
