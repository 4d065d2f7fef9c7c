package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wlan-handoff-sim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := scenario.BuiltIn()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tAPS\tSTATIONS\tDESCRIPTION")
		for _, name := range scenario.Names() {
			s := all[name]
			marker := ""
			if name == scenario.Default {
				marker = " (default)"
			}
			fmt.Fprintf(tw, "%s%s\t%d\t%d\t%s\n", name, marker, len(s.Config.AccessPoints), len(s.Config.Stations), s.Description)
		}
		return tw.Flush()
	},
}
