package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current e-stop state",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command) error {
	quietLogs()
	ctrl := newController(cmd)
	guard := estop.NewGuard(ctrl)
	defer guard.Shutdown("exit")

	st := ctrl.Status()
	if statusJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("E-Stop Status")
	fmt.Println("-------------")
	fmt.Printf("State:           %s\n", stateLabel(st.State))
	fmt.Printf("Switch:          %s\n", switchLabel(st))
	fmt.Printf("Wiring:          %s (%s)\n", st.Mode, st.Mode.Description())
	fmt.Printf("Manual override: %s\n", yesNo(st.ManualOverride))
	fmt.Printf("GPIO pin:        %d\n", st.GPIOPin)
	fmt.Printf("GPIO driver:     %s (available: %s)\n", st.Driver, yesNo(st.GPIOAvailable))
	fmt.Printf("Board:           %s\n", st.Board)
	if !st.GPIOAvailable {
		fmt.Println(yellow("! GPIO not available, running in simulation mode"))
	}
	return nil
}

func switchLabel(st estop.Status) string {
	if !st.GPIOAvailable {
		return "unknown (no hardware)"
	}
	if st.GPIOActive {
		return string(estop.SwitchClosed)
	}
	return string(estop.SwitchOpen)
}
