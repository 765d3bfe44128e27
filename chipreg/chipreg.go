// Package chipreg provides register addresses and bitfields used by the
// burst-mode and I2S clock sequencing code.
package chipreg

import "clockseq-go/regs"

// Peripheral block bases.
const (
	PeripheralBase = 0x40000000 // APB window; the I2C bridge offsets from here
	CLKGENBase     = 0x40004000
	MCUCTRLBase    = 0x40020000
	PWRCTRLBase    = 0x40021000
	I2S0Base       = 0x40208000
	I2SStride      = 0x1000
	NumI2S         = 2
)

// --- MCUCTRL ---
const (
	regSKU           = MCUCTRLBase + 0x004 // R (fuse)
	regFeatureEnable = MCUCTRLBase + 0x008 // R/W
	regVRCTRL        = MCUCTRLBase + 0x190 // R/W
	regPatchTracker  = MCUCTRLBase + 0x3F0 // R (INFO1 shadow)
	regSimoBuckTrim  = MCUCTRLBase + 0x348 // R/W (voltage trim)
)

var (
	SKUAllowBurst = regs.Bit("SKU.ALLOWBURST", regSKU, 0)

	FeatureBurstReq   = regs.Bit("FEATUREENABLE.BURSTREQ", regFeatureEnable, 4)
	FeatureBurstAck   = regs.Bit("FEATUREENABLE.BURSTACK", regFeatureEnable, 5)
	FeatureBurstAvail = regs.Bit("FEATUREENABLE.BURSTAVAIL", regFeatureEnable, 6)

	// Auxiliary (SIMO) buck converter overrides.
	SimoBuckOver   = regs.Bit("VRCTRL.SIMOBUCKOVER", regVRCTRL, 0)
	SimoBuckPDNB   = regs.Bit("VRCTRL.SIMOBUCKPDNB", regVRCTRL, 1)
	SimoBuckRSTB   = regs.Bit("VRCTRL.SIMOBUCKRSTB", regVRCTRL, 2)
	SimoBuckActive = regs.Bit("VRCTRL.SIMOBUCKACTIVE", regVRCTRL, 3)

	// Secondary (burst) LDO overrides.
	BurstLDOOver        = regs.Bit("VRCTRL.BURSTLDOOVER", regVRCTRL, 8)
	BurstLDOColdStartEn = regs.Bit("VRCTRL.BURSTLDOCOLDSTARTEN", regVRCTRL, 9)
	BurstLDOActiveEarly = regs.Bit("VRCTRL.BURSTLDOACTIVEEARLY", regVRCTRL, 10)
	BurstLDOActive      = regs.Bit("VRCTRL.BURSTLDOACTIVE", regVRCTRL, 11)
	BurstLDOPDNB        = regs.Bit("VRCTRL.BURSTLDOPDNB", regVRCTRL, 12)

	// Set when the burst LDO erratum fix is present on this unit.
	PatchBurstLDO = regs.Bit("PATCHTRACKER.BURSTLDO", regPatchTracker, 2)

	SimoBuckCoreTrim = regs.Field{Name: "SIMOBUCK.CORETRIM", Reg: regSimoBuckTrim, Pos: 0, Width: 6}
)

// --- PWRCTRL ---
const (
	regDevPwrEventEn = PWRCTRLBase + 0x0C4
)

var PwrBurstEventEn = regs.Bit("DEVPWREVENTEN.BURSTEVEN", regDevPwrEventEn, 4)

// --- CLKGEN ---
const (
	regFreqCtrl = CLKGENBase + 0x040
)

var (
	FreqBurstReq    = regs.Bit("FREQCTRL.BURSTREQ", regFreqCtrl, 0)
	FreqBurstAck    = regs.Bit("FREQCTRL.BURSTACK", regFreqCtrl, 1)
	FreqBurstStatus = regs.Bit("FREQCTRL.BURSTSTATUS", regFreqCtrl, 2)
)

// --- I2S clock block (per instance) ---
const (
	offClkCfg = 0x200
	offNCOCfg = 0x204
	offLLMux  = 0x208
)

// I2SClock groups the clock fields of one I2S instance.
type I2SClock struct {
	MCLKEN   regs.Field // master clock enable gate
	NCOSEL   regs.Field // top-level mux: 1 = NCO path
	FSEL     regs.Field // non-NCO CLKGEN sub-mux
	NCOFSEL  regs.Field // NCO-side CLKGEN sub-mux
	LLSEL    regs.Field // last-level mux select
	LLSTATUS regs.Field // last-level mux status (read-only)
}

// I2S returns the clock fields for instance n.
func I2S(n int) I2SClock {
	base := uint32(I2S0Base + n*I2SStride)
	p := "I2S" + string(rune('0'+n)) + "."
	return I2SClock{
		MCLKEN:   regs.Bit(p+"CLKCFG.MCLKEN", base+offClkCfg, 0),
		NCOSEL:   regs.Bit(p+"CLKCFG.NCOSEL", base+offClkCfg, 1),
		FSEL:     regs.Field{Name: p + "CLKCFG.FSEL", Reg: base + offClkCfg, Pos: 8, Width: 4},
		NCOFSEL:  regs.Field{Name: p + "NCOCFG.FSEL", Reg: base + offNCOCfg, Pos: 0, Width: 4},
		LLSEL:    regs.Field{Name: p + "LLMUX.SEL", Reg: base + offLLMux, Pos: 0, Width: 2},
		LLSTATUS: regs.Field{Name: p + "LLMUX.STATUS", Reg: base + offLLMux, Pos: 4, Width: 2},
	}
}

// LLMuxReg returns the LL mux register address of instance n.
func LLMuxReg(n int) uint32 { return uint32(I2S0Base+n*I2SStride) + offLLMux }

// LL mux encodings.
const (
	LLSelClkgen    = 0
	LLSelPLLFout3  = 1
	LLSelPLLFout4  = 2
	LLSelReserved  = 3
	FSELOff        = 0x0
	FSELHFRC48MHz  = 0x1
	FSELHFRC24MHz  = 0x2
	FSELHFRC12MHz  = 0x3
	FSELHFRC6MHz   = 0x4
	FSELHFRC3MHz   = 0x5
	FSELHFRC1M5Hz  = 0x6
	FSELHFRC750kHz = 0x7
	FSELHFRC2_96M  = 0x8
	FSELXTHS       = 0x9
	FSELXTHSDiv2   = 0xA
	FSELEXTREF     = 0xB
)
