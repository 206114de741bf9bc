package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sthembisoo/bugsnag-notifier/cmd/notify"
)

var rootCmd = &cobra.Command{
	Use:   "bugsnag-notifier",
	Short: "Report request errors to Bugsnag",
}

func main() {
	rootCmd.AddCommand(notify.NewCmdNotify())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
