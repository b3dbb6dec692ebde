// Package cli implements the feedsync command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var storeDriver string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "feedsync [command] [flags]",
	Short:         "feedsync: an offline-first cached feed",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver override (sqlite, postgres, mongo, memory)")
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}
