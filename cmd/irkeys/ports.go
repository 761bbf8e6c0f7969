package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itohio/irkeys/pkg/remote"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := remote.Ports()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, warningStyle.Render("No serial ports found"))
			return nil
		}
		for _, p := range ports {
			if p.Description == p.Name {
				fmt.Fprintln(out, p.Name)
				continue
			}
			fmt.Fprintf(out, "%s %s\n", p.Name, dimStyle.Render(p.Description))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
