package main

import (
	"io"
	"log"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
)

var (
	flagPin     int
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "estopctl",
	Short: "Control and monitor a GPIO emergency-stop switch",
	Long: `estopctl manages a software e-stop backed by a physical switch on a
GPIO pin. It reads the pin under the configured wiring polarity (normally
closed or normally open), layers a persisted manual override on top, and
always leaves the pin at the safe output level when it exits.

Without hardware the controller runs in simulation mode, which is useful
for development on a workstation.`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagPin, "gpio-pin", estop.DefaultPin, "BCM pin number of the e-stop switch")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.estop_config.json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log controller activity to stderr")
}

// newController builds a controller from the persistent flags. The pin flag
// only overrides the stored pin when the user actually set it.
func newController(cmd *cobra.Command) *estop.Controller {
	opts := []estop.Option{estop.WithConfigPath(flagConfig)}
	if cmd.Flags().Changed("gpio-pin") {
		opts = append(opts, estop.WithPin(flagPin))
	}
	return estop.New(opts...)
}

// quietLogs silences library logging for one-shot commands unless --verbose
// was given. Monitor mode always logs.
func quietLogs() {
	if !flagVerbose {
		log.SetOutput(io.Discard)
	}
}

var colorProfile = termenv.ColorProfile()

func red(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("1")).Bold().String()
}

func green(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("2")).Bold().String()
}

func yellow(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("3")).String()
}

func stateLabel(state estop.State) string {
	if state == estop.StateActive {
		return red("ACTIVE")
	}
	return green("INACTIVE")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
