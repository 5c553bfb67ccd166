package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of liveslides",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "liveslides version %s\n", liveslides.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
