package core

import (
	"m65832/psw"
)

// RegisterFile is the read-only register view the front end consumes.
// The fetch/decode/address pipeline never writes registers.
type RegisterFile interface {
	A() uint32
	X() uint32
	Y() uint32
	D() uint32
	B() uint32
	VBR() uint32
	SP() uint32
}

// AddrOut is the assembled address accumulator plus the externally
// observable carry facts. PageCross asserts whenever the low-byte add
// overflowed, whether or not the high bytes absorbed the carry.
type AddrOut struct {
	Accum     uint32
	PageCross bool
	CarryOut  bool
}

// PCControl selects how the program counter advances this step.
type PCControl int

// PC controls
const (
	PCHold PCControl = iota
	PCInc
	PCLoad16
	PCLoad32
	PCAddOffset8
	PCAddOffset16
	PCLoadAccum
	PCDec3 // block-move re-execute
)

func indexValue(sel IndexSel, regs RegisterFile, mode psw.Mode) uint32 {
	var v uint32
	switch sel {
	case IndexX:
		v = regs.X()
	case IndexY:
		v = regs.Y()
	default:
		return 0
	}
	switch mode.IndexWidth {
	case psw.W8:
		return v & 0xFF
	case psw.W16:
		return v & 0xFFFF
	}
	return v
}

func operandU16(operand []byte) uint32 {
	if len(operand) < 2 {
		if len(operand) == 1 {
			return uint32(operand[0])
		}
		return 0
	}
	return uint32(operand[0]) | uint32(operand[1])<<8
}

func operandU24(operand []byte) uint32 {
	if len(operand) < 3 {
		return operandU16(operand)
	}
	return uint32(operand[0]) | uint32(operand[1])<<8 | uint32(operand[2])<<16
}

// addIndexed adds an index to a base address in one shot, reporting a
// page cross when the low byte overflows. In emulation mode the carry
// out of the low byte is dropped for wrapping forms, which reproduces
// the legacy in-page wrap of indexed direct-page addressing.
func addIndexed(base, index uint32, wrap bool, mode psw.Mode) AddrOut {
	low := (base & 0xFF) + (index & 0xFF)
	cross := low > 0xFF
	if mode.Emulation && wrap {
		return AddrOut{Accum: base&^0xFF | low&0xFF, PageCross: cross}
	}
	sum := base + index
	return AddrOut{Accum: sum, PageCross: cross, CarryOut: sum < base}
}

// Compute assembles the address accumulator for the decoded mode from
// the operand bytes and register file. For indirect forms it returns
// the address of the pointer cell and indirect=true along with the
// pointer width in bytes; the caller reads the pointer through the MMU
// and finishes with Resolve. Compute is a single atomic evaluation: it
// holds no state between calls.
func Compute(d DecodedInstruction, operand []byte, regs RegisterFile, mode psw.Mode) (out AddrOut, indirect bool, ptrBytes int) {
	dpBase := regs.D()

	switch d.Mode {
	case DirectPage:
		dp := uint32(0)
		if len(operand) > 0 {
			dp = uint32(operand[0])
		}
		out = addIndexed(dpBase+dp, indexValue(d.Index, regs, mode), true, mode)
		return out, false, 0

	case Absolute:
		out = addIndexed(operandU16(operand), indexValue(d.Index, regs, mode), false, mode)
		return out, false, 0

	case AbsoluteLong:
		out = addIndexed(operandU24(operand), indexValue(d.Index, regs, mode), false, mode)
		return out, false, 0

	case StackRelative:
		off := uint32(0)
		if len(operand) > 0 {
			off = uint32(operand[0])
		}
		return AddrOut{Accum: regs.SP() + off}, false, 0

	case StackRelativeIndirectY:
		off := uint32(0)
		if len(operand) > 0 {
			off = uint32(operand[0])
		}
		return AddrOut{Accum: regs.SP() + off}, true, ptrWidth(mode)

	case DirectIndirectX:
		dp := uint32(0)
		if len(operand) > 0 {
			dp = uint32(operand[0])
		}
		out = addIndexed(dpBase+dp, indexValue(IndexX, regs, mode), true, mode)
		return out, true, ptrWidth(mode)

	case DirectIndirect, DirectIndirectLong:
		dp := uint32(0)
		if len(operand) > 0 {
			dp = uint32(operand[0])
		}
		w := ptrWidth(mode)
		if d.Mode == DirectIndirectLong {
			w = longPtrWidth(mode)
		}
		return AddrOut{Accum: dpBase + dp}, true, w

	case AbsoluteIndirect:
		return AddrOut{Accum: operandU16(operand)}, true, ptrWidth(mode)

	case AbsoluteIndirectX:
		out = addIndexed(operandU16(operand), indexValue(IndexX, regs, mode), false, mode)
		return out, true, ptrWidth(mode)

	case AbsoluteIndirectLong:
		return AddrOut{Accum: operandU16(operand)}, true, longPtrWidth(mode)
	}

	return AddrOut{}, false, 0
}

// Resolve finishes an indirect form: the loaded pointer becomes the
// accumulator and any post-index is applied with full carry semantics.
func Resolve(d DecodedInstruction, ptr uint32, regs RegisterFile, mode psw.Mode) AddrOut {
	switch d.Mode {
	case DirectIndirect, DirectIndirectLong, StackRelativeIndirectY:
		return addIndexed(ptr, indexValue(d.Index, regs, mode), false, mode)
	}
	return AddrOut{Accum: ptr}
}

// ptrWidth is the size of a non-long pointer cell: two bytes in 16-bit
// and emulation operation, four in 32-bit mode.
func ptrWidth(mode psw.Mode) int {
	if mode.AccumWidth == psw.W32 && !mode.Emulation {
		return 4
	}
	return 2
}

// longPtrWidth is the size of an indirect-long pointer cell.
func longPtrWidth(mode psw.Mode) int {
	if mode.Emulation {
		return 3
	}
	return 4
}

// EffectiveBase selects the relocation base added to the accumulator
// before translation. Vector fetches in emulation mode relocate through
// VBR; data accesses relocate through B when selected; everything else
// is unrelocated.
func EffectiveBase(regs RegisterFile, mode psw.Mode, selVBR, selB bool) uint32 {
	if mode.Emulation && selVBR {
		return regs.VBR()
	}
	if selB {
		return regs.B()
	}
	return 0
}

// Effective is the address the MMU receives: accumulator plus the
// selected base. In 16-bit operation the accumulator is zero-extended
// before the base add, so relocation stays transparent to the
// addressing-mode logic above it.
func Effective(out AddrOut, base uint32, mode psw.Mode) uint32 {
	a := out.Accum
	if mode.Emulation || mode.AccumWidth != psw.W32 {
		a &= 0xFFFF
	}
	return a + base
}

// NextPC advances the program counter by the selected control. The
// returned flag is the branch-overflow indication: it asserts only for
// the 8-bit-offset form, when bit 8 of the PC changed across the add.
// Increment is suppressed while an interrupt is pending so the faulting
// or interrupted instruction restarts cleanly.
func NextPC(pc uint32, ctl PCControl, operand, accum, step uint32, irqPending bool, mode psw.Mode) (uint32, bool) {
	switch ctl {
	case PCHold:
		return pc, false
	case PCInc:
		if irqPending {
			return pc, false
		}
		return pc + step, false
	case PCLoad16:
		return operand & 0xFFFF, false
	case PCLoad32:
		return operand, false
	case PCAddOffset8:
		off := uint32(int32(int8(operand)))
		next := pc + off
		return next, (pc^next)>>8&1 == 1
	case PCAddOffset16:
		off := uint32(int32(int16(operand)))
		return pc + off, false
	case PCLoadAccum:
		if mode.Emulation || mode.AccumWidth != psw.W32 {
			return accum & 0xFFFF, false
		}
		return accum, false
	case PCDec3:
		return pc - 3, false
	}
	return pc, false
}
