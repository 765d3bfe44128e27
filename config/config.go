// Package config loads chip profiles: the burst timings and workaround
// switch, the I2S clock arbiter setup and the simulator fuses.
package config

import (
	"bytes"
	"embed"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"clockseq-go/burst"
	"clockseq-go/clockmux"
	"clockseq-go/errcode"
	"clockseq-go/hw"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

const DefaultProfile = "apollo4p_evb"

type Profile struct {
	Chip     string   `yaml:"chip"`
	Burst    Burst    `yaml:"burst"`
	ClockMux ClockMux `yaml:"clockmux"`
	Sim      Sim      `yaml:"sim"`
}

type Burst struct {
	Workaround        bool   `yaml:"workaround"`
	Regulator         string `yaml:"regulator"`
	PollMaxIterations uint32 `yaml:"poll_max_iterations"`
	PollDelayUs       uint32 `yaml:"poll_delay_us"`
	BuckSettleUs      uint32 `yaml:"buck_settle_us"`
	LDOEarlySettleUs  uint32 `yaml:"ldo_early_settle_us"`
	LDOActiveSettleUs uint32 `yaml:"ldo_active_settle_us"`
	BuckHoldUs        uint32 `yaml:"buck_hold_us"`
}

type ClockMux struct {
	Instances  int      `yaml:"instances"`
	LLSettleUs uint32   `yaml:"ll_settle_us"`
	SafeSub    string   `yaml:"safe_sub"`
	Boot       []string `yaml:"boot,omitempty"` // clock name per instance
}

type Sim struct {
	BurstAllowed     bool   `yaml:"burst_allowed"`
	FeatureAvailable bool   `yaml:"feature_available"`
	PatchPresent     bool   `yaml:"patch_present"`
	Latency          int    `yaml:"latency"`
	Faults           Faults `yaml:"faults,omitempty"`
}

type Faults struct {
	FeatureNeverAck  bool `yaml:"feature_never_ack,omitempty"`
	FeatureAckPulse  bool `yaml:"feature_ack_pulse,omitempty"`
	BurstNeverSwitch bool `yaml:"burst_never_switch,omitempty"`
	BurstNoAck       bool `yaml:"burst_no_ack,omitempty"`
	BurstRevert      bool `yaml:"burst_revert,omitempty"`
	DisableStuck     bool `yaml:"disable_stuck,omitempty"`
	LLStuck          bool `yaml:"ll_stuck,omitempty"`
}

// Default mirrors burst.DefaultConfig and clockmux.DefaultConfig; the
// simulated unit allows burst with a three-read status latency. Parsed
// documents are layered over it.
func Default() Profile {
	b := burst.DefaultConfig()
	m := clockmux.DefaultConfig()
	return Profile{
		Chip: "generic",
		Burst: Burst{
			Workaround:        b.Workaround,
			Regulator:         b.Regulator.String(),
			PollMaxIterations: b.PollMaxIterations,
			PollDelayUs:       b.PollDelayUs,
			BuckSettleUs:      b.BuckSettleUs,
			LDOEarlySettleUs:  b.LDOEarlySettleUs,
			LDOActiveSettleUs: b.LDOActiveSettleUs,
			BuckHoldUs:        b.BuckHoldUs,
		},
		ClockMux: ClockMux{
			Instances:  m.Instances,
			LLSettleUs: m.LLSettleUs,
			SafeSub:    m.SafeSub.String(),
		},
		Sim: Sim{
			BurstAllowed:     true,
			FeatureAvailable: true,
			Latency:          3,
		},
	}
}

// Parse decodes a YAML profile over Default and validates it. Unknown keys
// are rejected.
func Parse(raw []byte) (Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, &errcode.E{C: errcode.InvalidParams, Op: "config.parse", Msg: err.Error(), Err: err}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Load resolves an embedded profile by name.
func Load(name string) (Profile, error) {
	raw, err := profileFS.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return Profile{}, errcode.Wrap(errcode.InvalidParams, "config.load", "no embedded profile "+name)
	}
	return Parse(raw)
}

// LoadFile reads a profile from disk.
func LoadFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &errcode.E{C: errcode.InvalidParams, Op: "config.load", Msg: path, Err: err}
	}
	return Parse(raw)
}

// Resolve treats arg as a file path when it names a .yaml/.yml file and as
// an embedded profile name otherwise.
func Resolve(arg string) (Profile, error) {
	if arg == "" {
		arg = DefaultProfile
	}
	if strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") {
		return LoadFile(arg)
	}
	return Load(arg)
}

// Names lists the embedded profiles.
func Names() []string {
	ents, _ := profileFS.ReadDir("profiles")
	var out []string
	for _, e := range ents {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Marshal renders p as YAML.
func (p Profile) Marshal() ([]byte, error) { return yaml.Marshal(p) }

func (p Profile) Validate() error {
	bc, err := p.BurstConfig()
	if err != nil {
		return err
	}
	if err := bc.Validate(); err != nil {
		return err
	}
	mc, err := p.ClockMuxConfig()
	if err != nil {
		return err
	}
	if err := mc.Validate(); err != nil {
		return err
	}
	if len(p.ClockMux.Boot) > mc.Instances {
		return errcode.Wrap(errcode.InvalidParams, "config.clockmux", "more boot clocks than instances")
	}
	if _, err := p.BootClocks(); err != nil {
		return err
	}
	if p.Sim.Latency < 0 {
		return errcode.Wrap(errcode.InvalidParams, "config.sim", "latency must not be negative")
	}
	return nil
}

func parseRegulator(s string) (hw.RegulatorMode, error) {
	switch s {
	case "buck":
		return hw.RegulatorBuck, nil
	case "ldo":
		return hw.RegulatorLDO, nil
	}
	return 0, errcode.Wrap(errcode.InvalidParams, "config.burst", "unknown regulator "+s)
}

func (p Profile) BurstConfig() (burst.Config, error) {
	reg, err := parseRegulator(p.Burst.Regulator)
	if err != nil {
		return burst.Config{}, err
	}
	return burst.Config{
		Workaround:        p.Burst.Workaround,
		Regulator:         reg,
		PollMaxIterations: p.Burst.PollMaxIterations,
		PollDelayUs:       p.Burst.PollDelayUs,
		BuckSettleUs:      p.Burst.BuckSettleUs,
		LDOEarlySettleUs:  p.Burst.LDOEarlySettleUs,
		LDOActiveSettleUs: p.Burst.LDOActiveSettleUs,
		BuckHoldUs:        p.Burst.BuckHoldUs,
	}, nil
}

func (p Profile) ClockMuxConfig() (clockmux.Config, error) {
	safe, err := clockmux.ParseSub(p.ClockMux.SafeSub)
	if err != nil {
		return clockmux.Config{}, err
	}
	return clockmux.Config{
		Instances:  p.ClockMux.Instances,
		LLSettleUs: p.ClockMux.LLSettleUs,
		SafeSub:    safe,
	}, nil
}

// BootClocks resolves the boot clock names, one per listed instance.
func (p Profile) BootClocks() ([]clockmux.Clock, error) { return p.ClockMux.BootClocks() }

func (c ClockMux) BootClocks() ([]clockmux.Clock, error) {
	out := make([]clockmux.Clock, 0, len(c.Boot))
	for _, name := range c.Boot {
		c, err := clockmux.ParseClock(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
