package system

import (
	"fmt"
	"log"

	"m65832/console"
	"m65832/core"
	"m65832/faults"
	"m65832/psw"

	"github.com/jroimartin/gocui"
)

// CPU run states
const (
	StateRun = iota
	StateWait
	StateHalt
)

// System definition.
type System struct {
	Front *core.Pipeline
	MMU   *core.MMU
	Bus   *core.Bus

	State int
	log   *log.Logger
	debug bool

	// console and status output:
	console      console.Console
	terminalView *gocui.View
	regView      *gocui.View

	stepCounter uint64
}

// InitializeSystem initializes the emulated M65832 front end
func InitializeSystem(
	c console.Console, terminalView, regView *gocui.View, debugMode bool, log *log.Logger) *System {
	sys := new(System)
	sys.console = c
	sys.terminalView = terminalView
	sys.regView = regView
	sys.log = log
	sys.debug = debugMode

	sys.MMU = &core.MMU{}
	sys.Bus = core.NewBus(sys.MMU)
	sys.Front = core.NewPipeline(sys.MMU, sys.Bus)

	_ = sys.console.WriteConsole("Initializing M65832 front end.\n")

	sys.Front.Reset()
	sys.State = StateRun
	return sys
}

// LoadImage copies a memory image into RAM and points the reset vector
// at it, then re-runs reset so the PC lands on the image.
func (sys *System) LoadImage(data []byte, at uint32) {
	sys.Bus.LoadImage(data, at)
	sys.Bus.WriteWord(faults.VecReset, uint16(at))
	sys.Front.Reset()
	sys.State = StateRun
}

// Run system
func (sys *System) Run() {
	for sys.State == StateRun {
		sys.step()
	}
}

// single front end step:
func (sys *System) step() {
	res := sys.Front.Step()
	if !res.Ran {
		return
	}
	sys.stepCounter++
	if sys.debug {
		sys.log.Printf("%08X: % X\n", res.PC, res.Bytes)
	}

	if res.Err != nil {
		sys.log.Printf("front end stopped: %v\n", res.Err)
		sys.State = StateHalt
		return
	}
	if res.Fault != nil {
		sys.dispatchFault(res.Fault)
		return
	}

	d := res.Instr
	switch {
	case d.Illegal:
		sys.log.Printf("illegal opcode % X at %08X\n", res.Bytes, res.PC)
		sys.vector(faults.VecIllegalOp, faults.VecIrqEmu)
	case d.Flags.Has(core.FlagStp):
		_ = sys.console.WriteConsole("STP: processor halted.\n")
		sys.State = StateHalt
	case d.Flags.Has(core.FlagWai):
		sys.State = StateWait
	case d.Flags.Has(core.FlagBrk):
		sys.vector(faults.VecBrk, faults.VecIrqEmu)
	case d.Flags.Has(core.FlagCop):
		if d.Mode == core.Immediate {
			sys.vector(faults.VecSyscall, faults.VecIrqEmu)
		} else {
			sys.vector(faults.VecCop, faults.VecIrqEmu)
		}
	default:
		sys.applyModeOps(res)
	}
}

// applyModeOps executes the instructions that change fetch semantics:
// mode and width flags, the emulation-mode switch and the base
// registers. Everything else belongs to the execution core and is a
// no-op here.
func (sys *System) applyModeOps(res core.StepResult) {
	d := res.Instr
	p := &sys.Front.PSW

	switch {
	case d.Flags.Has(core.FlagXce):
		c := p.C()
		e := p.E()
		p.SetC(e)
		p.SetE(c)

	case d.Flags.Has(core.FlagRep):
		if len(res.Bytes) >= 2 {
			*p = psw.PSW(uint16(*p) &^ uint16(res.Bytes[1]))
		}
	case d.Flags.Has(core.FlagSep):
		if len(res.Bytes) >= 2 {
			*p = psw.PSW(uint16(*p) | uint16(res.Bytes[1]))
		}

	case d.Flags.Has(core.FlagRSet):
		p.SetR(true)
	case d.Flags.Has(core.FlagRClr):
		p.SetR(false)

	case d.Flags.Has(core.FlagSetVbr):
		if !p.S() {
			sys.vector(faults.VecIllegalOp, faults.VecIrqEmu)
			return
		}
		sys.Front.Regs.SetVBR(sys.baseOperand(res))
	case d.Flags.Has(core.FlagSetBase):
		v := sys.baseOperand(res)
		if d.Dst == core.RegB {
			sys.Front.Regs.SetB(v)
		} else {
			sys.Front.Regs.SetD(v)
		}

	case d.Class == core.FlagOp:
		switch d.Opcode {
		case 0x18:
			p.SetC(false)
		case 0x38:
			p.SetC(true)
		case 0x58:
			p.SetI(false)
		case 0x78:
			p.SetI(true)
		case 0xB8:
			p.SetV(false)
		case 0xD8:
			p.SetD(false)
		case 0xF8:
			p.SetD(true)
		}
	}
}

// baseOperand fetches the 32-bit value of an SD/SB/SV form: inline for
// the immediate variant, a memory read for the direct-page one.
func (sys *System) baseOperand(res core.StepResult) uint32 {
	d := res.Instr
	if d.Mode == core.Immediate && len(res.Bytes) >= 6 {
		b := res.Bytes[2:]
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	if res.HasEA {
		return sys.Bus.ReadLong(res.PA)
	}
	return 0
}

// dispatchFault vectors the front end to the translation fault
// handler. The faulting address and kind are already latched in the
// memory-mapped fault registers for the handler to read.
func (sys *System) dispatchFault(f *faults.Fault) {
	sys.log.Printf("FAULT %s\n", f)
	_ = sys.console.WriteConsole(fmt.Sprintf("fault: %s\n", f))
	sys.vector(faults.VecPageFault, faults.VecAbortEmu)
}

// vector loads the PC from a handler vector: 32-bit handlers in native
// mode, 16-bit handlers relocated through VBR in emulation mode.
func (sys *System) vector(native uint32, emu uint32) {
	mode := sys.Front.PSW.Mode()
	if mode.Emulation {
		va := emu + sys.Front.Regs.VBR()
		sys.Front.PC = uint32(sys.Bus.ReadWord(uint64(va)))
		return
	}
	sys.Front.PC = sys.Bus.ReadLong(uint64(native))
}

// Interrupt wakes a waiting processor; the front end suppresses its PC
// increment while the request is pending.
func (sys *System) Interrupt() {
	if sys.State == StateWait {
		sys.State = StateRun
	}
	sys.Front.IRQPending = true
}

// Steps reports how many instructions the front end has retired.
func (sys *System) Steps() uint64 {
	return sys.stepCounter
}

// DumpRegisters renders the register file for the monitor.
func (sys *System) DumpRegisters() string {
	r := sys.Front.Regs
	return fmt.Sprintf(
		" |PC: %08X |  |A: %08X |  |X: %08X |  |Y: %08X |  |SP: %08X |  |D: %08X |  |B: %08X |  |VBR: %08X |  %s",
		sys.Front.PC, r.A(), r.X(), r.Y(), r.SP(), r.D(), r.B(), r.VBR(),
		sys.Front.PSW.GetFlags())
}

// DumpMMU renders the translation statistics for the monitor.
func (sys *System) DumpMMU() string {
	state := "off"
	if sys.MMU.Enabled {
		state = "on"
	}
	return fmt.Sprintf(" MMU: %s  asid: %d  hits: %d  misses: %d",
		state, sys.MMU.ASID, sys.MMU.TLB.Hits, sys.MMU.TLB.Misses)
}
