package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at release time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the estopctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("estopctl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
