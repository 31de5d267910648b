package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the software e-stop override",
	Long: `Reset clears the manual override. It never forces the e-stop
inactive: if the physical switch still signals a stop, the e-stop stays
ACTIVE until the switch is released.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReset(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command) error {
	quietLogs()
	ctrl := newController(cmd)
	guard := estop.NewGuard(ctrl)
	defer guard.Shutdown("exit")

	saveErr := ctrl.Reset()
	if ctrl.State() == estop.StateActive {
		fmt.Println(yellow("! Override cleared, but the switch still signals a stop"))
		fmt.Println("The e-stop stays ACTIVE until the switch is released.")
	} else {
		fmt.Println(green("✓ E-stop reset, state INACTIVE"))
	}
	if saveErr != nil {
		fmt.Fprintln(os.Stderr, yellow("! Override cleared but not persisted: "+saveErr.Error()))
	}
	return nil
}
