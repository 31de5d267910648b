package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Engage the software e-stop override",
	Long: `Activate engages the manual override. The e-stop reports ACTIVE
regardless of the physical switch until 'estopctl reset' clears it. The
override is persisted, so it survives restarts.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runActivate(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(activateCmd)
}

func runActivate(cmd *cobra.Command) error {
	quietLogs()
	ctrl := newController(cmd)
	guard := estop.NewGuard(ctrl)
	defer guard.Shutdown("exit")

	saveErr := ctrl.Activate()
	fmt.Println(red("✗ E-STOP ACTIVE"))
	fmt.Println("The stop stays engaged until 'estopctl reset'.")
	if saveErr != nil {
		// The override holds in memory; a failed save must not read as a
		// failed stop.
		fmt.Fprintln(os.Stderr, yellow("! Override engaged but not persisted: "+saveErr.Error()))
	}
	return nil
}
