// Package cmd implements the wamux CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wamux",
		Short: "Multi-session WhatsApp gateway",
		Long: "wamux multiplexes many independent messaging sessions over a single\n" +
			"process, pairing each one with a device via QR code and routing\n" +
			"outbound messages through whichever sessions are connected.",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (JSON)")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(instancesCmd())
	cmd.AddCommand(sendCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
