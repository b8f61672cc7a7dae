package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/beliefbench/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.GetVersionInfo())
		return nil
	},
}
