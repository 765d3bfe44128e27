package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clockseq-go/trace"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded register traces",
	}
	dump := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print a CBOR trace capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			c, err := trace.Decode(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s chip %s taken %s events %d\n",
				c.Session, c.Chip, c.Taken.Format("2006-01-02T15:04:05Z07:00"), len(c.Events))
			for _, e := range c.Events {
				fmt.Fprintln(out, formatEvent(e))
			}
			return nil
		},
	}
	cmd.AddCommand(dump)
	return cmd
}

func formatEvent(e trace.Event) string {
	switch e.Kind {
	case trace.KindDelay:
		return fmt.Sprintf("%5d %-6s %dus", e.Seq, e.Kind, e.Us)
	case trace.KindField:
		return fmt.Sprintf("%5d %-6s %s=%d", e.Seq, e.Kind, e.Field, e.Value)
	case trace.KindCritBegin, trace.KindCritEnd:
		return fmt.Sprintf("%5d %s", e.Seq, e.Kind)
	default:
		return fmt.Sprintf("%5d %-6s %#08x %#08x", e.Seq, e.Kind, e.Addr, e.Value)
	}
}
