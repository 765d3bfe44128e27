package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clockseq-go/board"
	"clockseq-go/errcode"
	"clockseq-go/internal/logx"
)

func newBurstCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burst",
		Short: "Run burst-mode transitions",
	}

	step := func(use, short string, fn func(cmd *cobra.Command, b *board.Board) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := opts.open()
				if err != nil {
					return err
				}
				runErr := fn(cmd, b)
				reportViolations(cmd.OutOrStdout(), b.Chip)
				fmt.Fprintf(cmd.OutOrStdout(), "elapsed_us=%d\n", b.Clock.NowUs())
				if err := opts.finish(cmd, b); err != nil {
					return err
				}
				return runErr
			},
		}
	}

	cmd.AddCommand(
		step("init", "Initialize and report availability", func(cmd *cobra.Command, b *board.Board) error {
			return initialize(cmd, b)
		}),
		step("enable", "Initialize, then switch to burst", func(cmd *cobra.Command, b *board.Board) error {
			if err := initialize(cmd, b); err != nil {
				return err
			}
			m, err := b.Burst.Enable()
			fmt.Fprintf(cmd.OutOrStdout(), "enable: mode=%s status=%s\n", m, errcode.Of(err))
			return err
		}),
		step("disable", "Initialize, then return to normal", func(cmd *cobra.Command, b *board.Board) error {
			if err := initialize(cmd, b); err != nil {
				return err
			}
			m, err := b.Burst.Disable()
			fmt.Fprintf(cmd.OutOrStdout(), "disable: mode=%s status=%s\n", m, errcode.Of(err))
			return err
		}),
		newCycleCmd(opts),
	)
	return cmd
}

func newCycleCmd(opts *rootOpts) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Initialize, then enable and disable repeatedly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errcode.Wrap(errcode.InvalidParams, "clockseq.cycle", "count must be positive")
			}
			b, err := opts.open()
			if err != nil {
				return err
			}
			runErr := func() error {
				if err := initialize(cmd, b); err != nil {
					return err
				}
				log := logx.For(logx.ComponentBurst)
				for i := 0; i < count; i++ {
					m, err := b.Burst.Enable()
					fmt.Fprintf(cmd.OutOrStdout(), "cycle %d: enable mode=%s status=%s\n", i, m, errcode.Of(err))
					if err != nil {
						return err
					}
					m, err = b.Burst.Disable()
					fmt.Fprintf(cmd.OutOrStdout(), "cycle %d: disable mode=%s status=%s\n", i, m, errcode.Of(err))
					if err != nil {
						return err
					}
					log.Debug("cycle done", "n", i, "now_us", b.Clock.NowUs())
				}
				return nil
			}()
			reportViolations(cmd.OutOrStdout(), b.Chip)
			fmt.Fprintf(cmd.OutOrStdout(), "elapsed_us=%d\n", b.Clock.NowUs())
			if err := opts.finish(cmd, b); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 3, "number of enable/disable pairs")
	return cmd
}

func initialize(cmd *cobra.Command, b *board.Board) error {
	a, err := b.Burst.Initialize()
	fmt.Fprintf(cmd.OutOrStdout(), "init: avail=%s status=%s\n", a, errcode.Of(err))
	return err
}
