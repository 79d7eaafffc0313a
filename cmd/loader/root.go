package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "loader",
		Short:         "Bulk loader for the rentals CSV feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newLoadCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
