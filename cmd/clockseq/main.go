// Command clockseq runs the burst and I2S clock sequences against the
// simulated chip and inspects the register traces they leave behind.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clockseq-go/board"
	"clockseq-go/config"
	"clockseq-go/errcode"
	"clockseq-go/internal/logx"
	"clockseq-go/sim"
)

type rootOpts struct {
	profile  string
	traceOut string
	reads    bool
	faults   []string
	logLevel string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "clockseq",
		Short:         "Burst-mode and I2S clock sequencing on a simulated chip",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logx.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logx.SetLevel(l)
			logx.SetOutput(cmd.ErrOrStderr(), false)
			return nil
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.profile, "profile", "p", config.DefaultProfile, "embedded profile name or path to a .yaml profile")
	pf.StringVar(&opts.traceOut, "trace-out", "", "write the register trace to this CBOR file")
	pf.BoolVar(&opts.reads, "trace-reads", false, "include register reads in the trace")
	pf.StringSliceVar(&opts.faults, "fault", nil, "inject a simulator fault (repeatable)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(
		newBurstCmd(opts),
		newI2SCmd(opts),
		newTraceCmd(),
		newLatencyCmd(opts),
		newProfilesCmd(),
	)
	return root
}

// open builds a traced simulator board from the selected profile.
func (o *rootOpts) open() (*board.Board, error) {
	p, err := config.Resolve(o.profile)
	if err != nil {
		return nil, err
	}
	for _, name := range o.faults {
		if err := applyFault(&p.Sim.Faults, name); err != nil {
			return nil, err
		}
	}
	return board.NewSim(p, board.WithTrace(o.reads))
}

// finish writes the trace capture when one was requested.
func (o *rootOpts) finish(cmd *cobra.Command, b *board.Board) error {
	if o.traceOut == "" || b.Trace == nil {
		return nil
	}
	f, err := os.Create(o.traceOut)
	if err != nil {
		return err
	}
	c := b.Trace.Snapshot(b.Profile.Chip)
	if err := c.Encode(f); err != nil {
		f.Close()
		return err
	}
	logx.For(logx.ComponentCLI).Info("trace written", "file", o.traceOut, "events", len(c.Events), "session", c.Session.String())
	return f.Close()
}

func applyFault(f *config.Faults, name string) error {
	switch name {
	case "feature_never_ack":
		f.FeatureNeverAck = true
	case "feature_ack_pulse":
		f.FeatureAckPulse = true
	case "burst_never_switch":
		f.BurstNeverSwitch = true
	case "burst_no_ack":
		f.BurstNoAck = true
	case "burst_revert":
		f.BurstRevert = true
	case "disable_stuck":
		f.DisableStuck = true
	case "ll_stuck":
		f.LLStuck = true
	default:
		return errcode.Wrap(errcode.InvalidParams, "clockseq.fault", "unknown fault "+name)
	}
	return nil
}

// reportViolations prints mux rule breaches the simulator saw.
func reportViolations(w io.Writer, chip *sim.Chip) {
	for _, v := range chip.Violations() {
		fmt.Fprintln(w, "violation:", v)
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "clockseq:", err)
		os.Exit(1)
	}
}
