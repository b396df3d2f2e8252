package core

import (
	"m65832/faults"
	"m65832/psw"
)

// Registers is the concrete register file. The front end itself only
// reads it; the setters exist for the execution core, the monitor and
// tests.
type Registers struct {
	a, x, y   uint32
	d, b, vbr uint32
	sp        uint32
}

func (r *Registers) A() uint32   { return r.a }
func (r *Registers) X() uint32   { return r.x }
func (r *Registers) Y() uint32   { return r.y }
func (r *Registers) D() uint32   { return r.d }
func (r *Registers) B() uint32   { return r.b }
func (r *Registers) VBR() uint32 { return r.vbr }
func (r *Registers) SP() uint32  { return r.sp }

func (r *Registers) SetA(v uint32)   { r.a = v }
func (r *Registers) SetX(v uint32)   { r.x = v }
func (r *Registers) SetY(v uint32)   { r.y = v }
func (r *Registers) SetD(v uint32)   { r.d = v }
func (r *Registers) SetB(v uint32)   { r.b = v }
func (r *Registers) SetVBR(v uint32) { r.vbr = v }
func (r *Registers) SetSP(v uint32)  { r.sp = v }

// StepResult is the tagged outcome of one pipeline step, consumed by
// the trap dispatcher and the monitor. Exactly one of Fault or a valid
// Instr describes what happened; Ran is false when the scheduler held
// the pipeline this step.
type StepResult struct {
	Ran bool

	PC    uint32
	Instr DecodedInstruction
	Bytes []byte

	HasEA bool
	EA    uint32
	PA    uint64

	Fault *faults.Fault

	// Err reports a broken translation contract (walker already busy),
	// distinct from an architectural fault. The PC does not advance.
	Err error
}

// Pipeline is the instruction front end: it fetches through the MMU,
// decodes, assembles the effective address and advances the PC. It
// performs no recovery on faults; the result is handed upward.
type Pipeline struct {
	PC   uint32
	PSW  psw.PSW
	Regs *Registers
	MMU  *MMU
	Bus  *Bus

	// scheduler run-enable; when false, Step retains all state
	Enabled bool

	// suppresses the PC increment so the interrupted instruction
	// restarts after dispatch
	IRQPending bool

	Trace *Trace
}

func NewPipeline(mmu *MMU, bus *Bus) *Pipeline {
	return &Pipeline{
		Regs:    &Registers{},
		MMU:     mmu,
		Bus:     bus,
		Enabled: true,
		Trace:   NewTrace(traceDepth),
	}
}

// Reset puts the front end into the power-on state: emulation mode,
// supervisor, PC loaded from the reset vector, walker aborted and TLB
// invalidated.
func (p *Pipeline) Reset() {
	p.MMU.Reset()
	p.PSW = 0
	p.PSW.SetE(true)
	p.PSW.SetS(true)
	p.PC = uint32(p.Bus.ReadWord(uint64(faults.VecReset)))
}

func (p *Pipeline) fetchByte(va uint32, mode psw.Mode) (byte, *faults.Fault, error) {
	pa, f, err := p.MMU.Translate(va, faults.Execute, mode.Supervisor, p.Bus)
	if err != nil {
		return 0, nil, err
	}
	if f != nil {
		return 0, f, nil
	}
	return p.Bus.ReadByte(pa), nil, nil
}

func (p *Pipeline) readData(va uint32, n int, mode psw.Mode) (uint32, *faults.Fault, error) {
	var v uint32
	for i := 0; i < n; i++ {
		pa, f, err := p.MMU.Translate(va+uint32(i), faults.Read, mode.Supervisor, p.Bus)
		if err != nil {
			return 0, nil, err
		}
		if f != nil {
			return 0, f, nil
		}
		v |= uint32(p.Bus.ReadByte(pa)) << (8 * i)
	}
	return v, nil, nil
}

// Step fetches, decodes and addresses one instruction. The PC advances
// only on success: a fetch or translation fault leaves it at the
// faulting instruction.
func (p *Pipeline) Step() StepResult {
	res := StepResult{PC: p.PC}
	if !p.Enabled {
		return res
	}
	res.Ran = true

	mode := p.PSW.Mode()

	opcode, f, err := p.fetchByte(p.PC, mode)
	if f != nil || err != nil {
		res.Fault, res.Err = f, err
		p.record(res)
		return res
	}

	var ext, extMode byte
	if opcode == ExtPrefix && !mode.Emulation {
		if ext, f, err = p.fetchByte(p.PC+1, mode); f != nil || err != nil {
			res.Fault, res.Err = f, err
			p.record(res)
			return res
		}
	}
	d := Decode(opcode, ext, extMode, false, mode)
	if !d.LengthFinal {
		if extMode, f, err = p.fetchByte(p.PC+2, mode); f != nil || err != nil {
			res.Fault, res.Err = f, err
			p.record(res)
			return res
		}
		d = Decode(opcode, ext, extMode, true, mode)
	}
	res.Instr = d

	bytes := make([]byte, d.Length)
	for i := range bytes {
		b, f, err := p.fetchByte(p.PC+uint32(i), mode)
		if f != nil || err != nil {
			res.Fault, res.Err = f, err
			p.record(res)
			return res
		}
		bytes[i] = b
	}
	res.Bytes = bytes

	if ea, ok, f, err := p.effectiveAddress(d, bytes, mode); f != nil || err != nil {
		res.Fault, res.Err = f, err
		p.record(res)
		return res
	} else if ok {
		res.HasEA = true
		res.EA = ea
		pa, fault, err := p.MMU.Translate(ea, dataAccess(d), mode.Supervisor, p.Bus)
		switch {
		case err != nil:
			res.Err = err
			p.record(res)
			return res
		case fault != nil:
			res.Fault = fault
			p.record(res)
			return res
		default:
			res.PA = pa
		}
	}

	p.advance(&res, mode)
	p.record(res)
	return res
}

// dataAccess classifies the operand access for permission checking.
func dataAccess(d DecodedInstruction) faults.Access {
	switch d.AluOp {
	case OpSta, OpStx, OpSty, OpStz, OpStq, OpSci:
		return faults.Write
	}
	if d.Class == ReadModifyWrite && d.Mode != Implied {
		return faults.Write
	}
	return faults.Read
}

// operandBytes strips the opcode and any prefix/mode bytes, leaving
// just the addressing bytes.
func operandBytes(d DecodedInstruction, bytes []byte) []byte {
	skip := 1
	if len(bytes) > 0 && bytes[0] == ExtPrefix {
		skip = 2
		switch d.Class {
		case RegisterAlu, Shifter, Extend:
			skip = 3
		case Control:
			// the coprocessor dispatch byte precedes the operand; the
			// TRAP immediate form has no dispatch byte
			if d.Flags.Has(FlagCop) && d.Mode != Immediate && len(bytes) > 2 {
				skip = 3
			}
		}
	}
	if skip > len(bytes) {
		return nil
	}
	return bytes[skip:]
}

func (p *Pipeline) effectiveAddress(d DecodedInstruction, bytes []byte, mode psw.Mode) (uint32, bool, *faults.Fault, error) {
	switch d.Mode {
	case Implied, Immediate, Relative, RelativeLong, BlockMovePair:
		return 0, false, nil, nil
	}

	out, indirect, ptrBytes := Compute(d, operandBytes(d, bytes), p.Regs, mode)
	if indirect {
		base := EffectiveBase(p.Regs, mode, false, true)
		ptr, f, err := p.readData(Effective(out, base, mode), ptrBytes, mode)
		if f != nil || err != nil {
			return 0, false, f, err
		}
		out = Resolve(d, ptr, p.Regs, mode)
	}
	base := EffectiveBase(p.Regs, mode, false, d.Class != Jump)
	return Effective(out, base, mode), true, nil, nil
}

// advance moves the PC. Unconditional branches and jumps are followed
// here; conditional branches fall through sequentially since flag
// evaluation belongs to the execution core.
func (p *Pipeline) advance(res *StepResult, mode psw.Mode) {
	d := res.Instr
	step := uint32(d.Length)

	switch {
	case d.Class == Branch && d.Cond == CondAlways:
		p.PC, _ = NextPC(p.PC+step, pcCtlForBranch(d), branchOperand(d, res.Bytes), 0, 0, false, mode)
	case d.Class == Jump && res.HasEA:
		ctl := PCLoad16
		if d.Mode == AbsoluteLong || d.Flags.Has(FlagJml) || d.Flags.Has(FlagJsl) ||
			mode.AccumWidth == psw.W32 && !mode.Emulation {
			ctl = PCLoad32
		}
		p.PC, _ = NextPC(p.PC, ctl, res.EA, 0, 0, false, mode)
	default:
		p.PC, _ = NextPC(p.PC, PCInc, 0, 0, step, p.IRQPending, mode)
	}
}

func pcCtlForBranch(d DecodedInstruction) PCControl {
	if d.Mode == RelativeLong {
		return PCAddOffset16
	}
	return PCAddOffset8
}

func branchOperand(d DecodedInstruction, bytes []byte) uint32 {
	op := operandBytes(d, bytes)
	if d.Mode == RelativeLong {
		return operandU16(op)
	}
	if len(op) > 0 {
		return uint32(op[0])
	}
	return 0
}

func (p *Pipeline) record(res StepResult) {
	if p.Trace != nil {
		p.Trace.Record(res)
	}
}
