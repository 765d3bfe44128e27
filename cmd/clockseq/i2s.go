package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clockseq-go/clockmux"
	"clockseq-go/errcode"
)

func newI2SCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i2s",
		Short: "Change I2S master clock sources",
	}

	var dryRun bool
	set := &cobra.Command{
		Use:   "set <instance> <clock>",
		Short: "Apply the boot clocks, then switch one instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return errcode.Wrap(errcode.InvalidParams, "clockseq.i2s", "instance must be a number")
			}
			c, err := clockmux.ParseClock(args[1])
			if err != nil {
				return err
			}
			b, err := opts.open()
			if err != nil {
				return err
			}
			if err := b.Boot(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			plan, err := b.I2S.Preview(n, c.Source())
			if err != nil {
				return err
			}
			for i, s := range plan.Steps {
				fmt.Fprintf(out, "step %d: %s %d\n", i, s.Kind, s.Value)
			}
			fmt.Fprintf(out, "waypoints=%d\n", plan.Waypoints())
			if dryRun {
				return nil
			}

			b.Trace.Reset()
			runErr := b.I2S.SetClockPreset(n, c)
			fmt.Fprintf(out, "i2s%d: %s status=%s\n", n, c, errcode.Of(runErr))
			if cur, ok := b.I2S.Current(n); ok {
				fmt.Fprintf(out, "i2s%d: current=%s\n", n, cur)
			}
			reportViolations(out, b.Chip)
			if err := opts.finish(cmd, b); err != nil {
				return err
			}
			return runErr
		},
	}
	set.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without executing it")

	list := &cobra.Command{
		Use:   "list",
		Short: "List clock names",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, c := range clockmux.Clocks() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", c, c.Source())
			}
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}
