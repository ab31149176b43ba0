package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/dialoguetree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dialoguetree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dialoguetree version %s\n", strings.TrimSpace(dialoguetree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
