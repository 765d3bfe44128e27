package clockmux

import (
	"clockseq-go/chipreg"
	"clockseq-go/errcode"
)

// LLSel is a last-level mux input.
type LLSel uint8

const (
	LLClkgen   LLSel = chipreg.LLSelClkgen
	LLPLLFout3 LLSel = chipreg.LLSelPLLFout3
	LLPLLFout4 LLSel = chipreg.LLSelPLLFout4
)

func (s LLSel) String() string {
	switch s {
	case LLClkgen:
		return "clkgen"
	case LLPLLFout3:
		return "pll_fout3"
	case LLPLLFout4:
		return "pll_fout4"
	default:
		return "reserved"
	}
}

// IsPLL reports whether s is one of the gated PLL taps.
func (s LLSel) IsPLL() bool { return s == LLPLLFout3 || s == LLPLLFout4 }

// SubSel is a CLKGEN sub-mux selection. The NCO-side and non-NCO sub-muxes
// share the encoding.
type SubSel uint8

const (
	SubOff      SubSel = chipreg.FSELOff
	SubHFRC48M  SubSel = chipreg.FSELHFRC48MHz
	SubHFRC24M  SubSel = chipreg.FSELHFRC24MHz
	SubHFRC12M  SubSel = chipreg.FSELHFRC12MHz
	SubHFRC6M   SubSel = chipreg.FSELHFRC6MHz
	SubHFRC3M   SubSel = chipreg.FSELHFRC3MHz
	SubHFRC1M5  SubSel = chipreg.FSELHFRC1M5Hz
	SubHFRC750k SubSel = chipreg.FSELHFRC750kHz
	SubHFRC2M96 SubSel = chipreg.FSELHFRC2_96M
	SubXTHS     SubSel = chipreg.FSELXTHS
	SubXTHSDiv2 SubSel = chipreg.FSELXTHSDiv2
	SubEXTREF   SubSel = chipreg.FSELEXTREF

	subMax = SubEXTREF
)

// Source is the three-stage decomposition of a peripheral clock.
type Source struct {
	NCO bool   // top-level mux: NCO path
	LL  LLSel  // last-level mux (non-NCO path only)
	Sub SubSel // CLKGEN sub-mux feeding the selected path
}

// Validate rejects combinations the mux tree cannot produce.
func (s Source) Validate() error {
	const op = "clockmux.source"
	if s.Sub > subMax {
		return errcode.Wrap(errcode.InvalidParams, op, "unknown sub-mux selection")
	}
	if s.NCO {
		if s.LL != LLClkgen {
			return errcode.Wrap(errcode.InvalidParams, op, "NCO path has no LL selection")
		}
		if s.Sub == SubOff {
			return errcode.Wrap(errcode.InvalidParams, op, "NCO path needs a sub-mux source")
		}
		return nil
	}
	switch s.LL {
	case LLClkgen:
		if s.Sub == SubOff {
			return errcode.Wrap(errcode.InvalidParams, op, "CLKGEN path needs a sub-mux source")
		}
	case LLPLLFout3, LLPLLFout4:
	default:
		return errcode.Wrap(errcode.InvalidParams, op, "reserved LL selection")
	}
	return nil
}

// normalize drops the sub-mux from PLL targets; it is parked off there.
func (s Source) normalize() Source {
	if !s.NCO && s.LL.IsPLL() {
		s.Sub = SubOff
	}
	return s
}

func (s Source) String() string {
	if s.NCO {
		return "nco/" + s.Sub.String()
	}
	if s.LL.IsPLL() {
		return s.LL.String()
	}
	return "clkgen/" + s.Sub.String()
}

var subNames = [...]string{
	SubOff:      "off",
	SubHFRC48M:  "hfrc_48mhz",
	SubHFRC24M:  "hfrc_24mhz",
	SubHFRC12M:  "hfrc_12mhz",
	SubHFRC6M:   "hfrc_6mhz",
	SubHFRC3M:   "hfrc_3mhz",
	SubHFRC1M5:  "hfrc_1_5mhz",
	SubHFRC750k: "hfrc_750khz",
	SubHFRC2M96: "hfrc_2_96mhz",
	SubXTHS:     "xths",
	SubXTHSDiv2: "xths_div2",
	SubEXTREF:   "extref",
}

func (s SubSel) String() string {
	if int(s) < len(subNames) {
		return subNames[s]
	}
	return "unknown"
}

// Clock names the sources the I2S driver offers.
type Clock uint8

const (
	HFRC48MHz Clock = iota
	HFRC24MHz
	HFRC12MHz
	HFRC6MHz
	HFRC3MHz
	HFRC1M5Hz
	HFRC750kHz
	XTHS
	XTHSDiv2
	EXTREF
	NCOHFRC48MHz
	NCOHFRC24MHz
	NCOXTHS
	NCOEXTREF
	PLLFout3
	PLLFout4

	numClocks
)

var clockTable = [numClocks]struct {
	name string
	src  Source
}{
	HFRC48MHz:    {"hfrc_48mhz", Source{Sub: SubHFRC48M}},
	HFRC24MHz:    {"hfrc_24mhz", Source{Sub: SubHFRC24M}},
	HFRC12MHz:    {"hfrc_12mhz", Source{Sub: SubHFRC12M}},
	HFRC6MHz:     {"hfrc_6mhz", Source{Sub: SubHFRC6M}},
	HFRC3MHz:     {"hfrc_3mhz", Source{Sub: SubHFRC3M}},
	HFRC1M5Hz:    {"hfrc_1_5mhz", Source{Sub: SubHFRC1M5}},
	HFRC750kHz:   {"hfrc_750khz", Source{Sub: SubHFRC750k}},
	XTHS:         {"xths", Source{Sub: SubXTHS}},
	XTHSDiv2:     {"xths_div2", Source{Sub: SubXTHSDiv2}},
	EXTREF:       {"extref", Source{Sub: SubEXTREF}},
	NCOHFRC48MHz: {"nco_hfrc_48mhz", Source{NCO: true, Sub: SubHFRC48M}},
	NCOHFRC24MHz: {"nco_hfrc_24mhz", Source{NCO: true, Sub: SubHFRC24M}},
	NCOXTHS:      {"nco_xths", Source{NCO: true, Sub: SubXTHS}},
	NCOEXTREF:    {"nco_extref", Source{NCO: true, Sub: SubEXTREF}},
	PLLFout3:     {"pll_fout3", Source{LL: LLPLLFout3}},
	PLLFout4:     {"pll_fout4", Source{LL: LLPLLFout4}},
}

// Source returns the decomposition of c.
func (c Clock) Source() Source {
	if c >= numClocks {
		return Source{}
	}
	return clockTable[c].src
}

func (c Clock) String() string {
	if c >= numClocks {
		return "unknown"
	}
	return clockTable[c].name
}

// Clocks lists every named clock.
func Clocks() []Clock {
	out := make([]Clock, 0, numClocks)
	for c := Clock(0); c < numClocks; c++ {
		out = append(out, c)
	}
	return out
}

// ParseClock maps a name back to its Clock.
func ParseClock(name string) (Clock, error) {
	for c := Clock(0); c < numClocks; c++ {
		if clockTable[c].name == name {
			return c, nil
		}
	}
	return 0, errcode.Wrap(errcode.InvalidParams, "clockmux.parse", "unknown clock "+name)
}

// ParseSub maps a sub-mux name ("hfrc_3mhz", "xths", ...) to its selection.
func ParseSub(name string) (SubSel, error) {
	for i, n := range subNames {
		if n == name {
			return SubSel(i), nil
		}
	}
	return 0, errcode.Wrap(errcode.InvalidParams, "clockmux.parse", "unknown sub-mux source "+name)
}
