package clockmux

// StepKind is one register action of a transition.
type StepKind uint8

const (
	StepTopMux      StepKind = iota + 1 // Value 1 selects the NCO path
	StepNCOSub                          // NCO-side sub-mux
	StepSub                             // non-NCO sub-mux
	StepForceGate                       // save MCLKEN, force it on
	StepLL                              // LL mux write, settle, verify
	StepRestoreGate                     // put MCLKEN back
)

func (k StepKind) String() string {
	switch k {
	case StepTopMux:
		return "top_mux"
	case StepNCOSub:
		return "nco_sub"
	case StepSub:
		return "sub"
	case StepForceGate:
		return "force_gate"
	case StepLL:
		return "ll"
	case StepRestoreGate:
		return "restore_gate"
	default:
		return "unknown"
	}
}

// Step is a single planned action.
type Step struct {
	Kind  StepKind
	Value uint8
}

// Plan is the ordered transition from the observed mux state to a target.
type Plan struct {
	Steps []Step
}

// Waypoints counts LL mux writes, each of which pays one settle delay.
func (p Plan) Waypoints() int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == StepLL {
			n++
		}
	}
	return n
}

// State is the hardware mux state a plan starts from.
type State struct {
	LL  LLSel
	Sub SubSel
}

// PlanTransition computes the steps from cur to target. safe is the sub-mux
// selection used to keep the CLKGEN input alive while the LL mux may be
// parked on it.
//
// The LL mux only switches glitch-free into or out of CLKGEN, so a move
// between the two PLL taps goes through CLKGEN.
func PlanTransition(cur State, target Source, safe SubSel) Plan {
	target = target.normalize()
	var p Plan
	add := func(k StepKind, v uint8) { p.Steps = append(p.Steps, Step{k, v}) }

	if target.NCO {
		add(StepTopMux, 1)
		add(StepNCOSub, uint8(target.Sub))
		add(StepSub, uint8(SubOff))
		return p
	}

	add(StepTopMux, 0)
	add(StepNCOSub, uint8(SubOff))

	if cur.LL == target.LL {
		if target.LL == LLClkgen && cur.Sub != target.Sub {
			add(StepSub, uint8(target.Sub))
		}
		return p
	}

	add(StepForceGate, 0)
	sub := cur.Sub
	if sub == SubOff {
		sub = safe
		add(StepSub, uint8(sub))
	}
	switch {
	case cur.LL == LLClkgen:
		add(StepLL, uint8(target.LL))
		add(StepSub, uint8(SubOff))
	case target.LL == LLClkgen:
		add(StepLL, uint8(LLClkgen))
		if sub != target.Sub {
			add(StepSub, uint8(target.Sub))
		}
	default:
		add(StepLL, uint8(LLClkgen))
		add(StepLL, uint8(target.LL))
		add(StepSub, uint8(SubOff))
	}
	add(StepRestoreGate, 0)
	return p
}
