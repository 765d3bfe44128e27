package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clockseq-go/config"
	"clockseq-go/x/timex"
)

func newLatencyCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "latency",
		Short: "Print worst-case blocking time per operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Resolve(opts.profile)
			if err != nil {
				return err
			}
			bc, err := p.BurstConfig()
			if err != nil {
				return err
			}
			mc, err := p.ClockMuxConfig()
			if err != nil {
				return err
			}
			l := bc.Latency()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile %s (workaround=%t)\n", p.Chip, bc.Workaround)
			fmt.Fprintf(out, "burst.initialize %v\n", timex.Us(l.InitializeUs))
			fmt.Fprintf(out, "burst.enable     %v\n", timex.Us(l.EnableUs))
			fmt.Fprintf(out, "burst.disable    %v\n", timex.Us(l.DisableUs))
			fmt.Fprintf(out, "i2s.set_clock    %v\n", timex.Us(mc.WorstCaseUs()))
			return nil
		},
	}
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List embedded chip profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range config.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	}
}
