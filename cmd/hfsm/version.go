package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlekbai/hfsm"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hfsm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hfsm version %s\n", hfsm.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
