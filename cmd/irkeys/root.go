package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/irkeys/pkg/config"
)

var (
	configFile string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "irkeys",
	Short: "IR remote receiver bridge",
	Long: `irkeys - receive keys from an IR remote control and drive a media player.

The receiver MCU decodes 12-bit remote frames and sends one character per
button press over a 9600 baud 8E1 serial line. irkeys listens on that line,
turns the characters into keypad commands and forwards them to pianobar.

Commands for working without hardware:
  encode  writes the captures of remote frames as a capture dump
  decode  runs a capture dump through the receiver decoder
  listen --mock  simulates a remote pointed at the receiver`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}

		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "irkeys.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
