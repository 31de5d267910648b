package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
)

var configMode string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the e-stop configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConfig(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.Flags().StringVar(&configMode, "mode", "", "set wiring mode: nc (normally closed) or no (normally open)")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command) error {
	quietLogs()
	ctrl := newController(cmd)
	guard := estop.NewGuard(ctrl)
	defer guard.Shutdown("exit")

	if cmd.Flags().Changed("mode") {
		mode, err := estop.ParseMode(configMode)
		if err != nil {
			return err
		}
		if err := ctrl.SetMode(mode); err != nil {
			return err
		}
		fmt.Printf("Wiring mode set to %s (%s)\n", mode, mode.Description())
		fmt.Println()
	}

	st := ctrl.Status()
	fmt.Println("Configuration")
	fmt.Println("-------------")
	fmt.Printf("Wiring mode:     %s (%s)\n", st.Mode, st.Mode.Description())
	fmt.Printf("GPIO pin:        %d\n", st.GPIOPin)
	fmt.Printf("Manual override: %s\n", yesNo(st.ManualOverride))
	fmt.Printf("Config file:     %s\n", configPath())
	return nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return estop.DefaultConfigPath()
}
