package main

import (
	"github.com/spf13/cobra"
	"gomodules.xyz/flags"
	v "gomodules.xyz/x/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "oncectl",
		Short:             "Exercise the once guard and the counting semaphore",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			flags.PrintFlags(c.Flags())
		},
	}

	rootCmd.AddCommand(NewCmdRace())
	rootCmd.AddCommand(NewCmdScenario())
	rootCmd.AddCommand(NewCmdSemaphore())
	rootCmd.AddCommand(v.NewCmdVersion())
	return rootCmd
}
