package core

import (
	"m65832/psw"
)

// ExtPrefix is the opcode that switches decoding to the extended page.
const ExtPrefix = 0x02

// Class tags the decoded instruction with its execution category.
type Class int

// instruction classes
const (
	Alu Class = iota
	ReadModifyWrite
	Branch
	Jump
	Stack
	Transfer
	FlagOp
	Control
	BlockMove
	ExtendedAlu
	Shifter
	Extend
	RegisterAlu
)

// AddrMode selects one of the sixteen operand addressing forms. Index
// register selection is carried separately (see IndexSel), so dp,X and
// dp,Y are both DirectPage here.
type AddrMode int

// addressing modes
const (
	Implied AddrMode = iota
	Immediate
	DirectPage
	DirectIndirectX // (dp,X)
	DirectIndirect  // (dp), post-indexed by Y when IndexY
	DirectIndirectLong
	Absolute
	AbsoluteLong
	StackRelative
	StackRelativeIndirectY
	Relative     // 8-bit signed branch offset
	RelativeLong // 16-bit signed offset (BRL, PER)
	AbsoluteIndirect
	AbsoluteIndirectX
	AbsoluteIndirectLong
	BlockMovePair // two bank bytes (MVN, MVP)
)

// IndexSel names the index register applied to the addressing mode.
type IndexSel int

// index selections
const (
	IndexNone IndexSel = iota
	IndexX
	IndexY
)

// AluOp is the arithmetic/logic operation selector.
type AluOp int

// ALU operations. The first eight are the group-1 operation field in
// opcode order; the rest are index-register and extended-page ops.
const (
	OpNone AluOp = iota
	OpOra
	OpAnd
	OpEor
	OpAdc
	OpSta
	OpLda
	OpCmp
	OpSbc
	OpBit
	OpStz
	OpLdx
	OpLdy
	OpStx
	OpSty
	OpCpx
	OpCpy
	OpMul
	OpMulu
	OpDiv
	OpDivu
	OpCas
	OpLli
	OpSci
	OpLea
	OpLdq
	OpStq
)

// RmwOp is the read-modify-write operation selector.
type RmwOp int

// read-modify-write operations
const (
	RmwNone RmwOp = iota
	RmwAsl
	RmwRol
	RmwLsr
	RmwRor
	RmwInc
	RmwDec
	RmwNot
	RmwTsb
	RmwTrb
)

// Reg names a register file member for transfer and control forms.
type Reg int

// register selectors
const (
	RegNone Reg = iota
	RegA
	RegX
	RegY
	RegS
	RegD
	RegB
	RegVBR
	RegT
	RegP
)

// Cond is the branch condition selector.
type Cond int

// branch conditions
const (
	CondNever Cond = iota
	CondAlways
	CondPl
	CondMi
	CondVc
	CondVs
	CondCc
	CondCs
	CondNe
	CondEq
)

// SpecialFlags is a bit set of control markers attached to a decoded
// instruction.
type SpecialFlags uint32

// special flag bits
const (
	FlagBrk SpecialFlags = 1 << iota
	FlagCop
	FlagRti
	FlagRts
	FlagRtl
	FlagJsr
	FlagJsl
	FlagJmp
	FlagJml
	FlagPer
	FlagWai
	FlagStp
	FlagXce
	FlagRep
	FlagSep
	FlagRSet
	FlagRClr
	FlagSetBase
	FlagSetVbr
	FlagCas
	FlagLoadLinked
	FlagStoreConditional
)

// Has reports whether all the given bits are set.
func (f SpecialFlags) Has(bits SpecialFlags) bool {
	return f&bits == bits
}

// DecodedInstruction is the descriptor produced once per fetch. Length
// is the full instruction size in bytes, including opcode and any
// prefix or mode bytes. LengthFinal is false only while an extended
// sub-decoder still waits for its operation/mode byte; the decoder must
// be re-invoked with that byte before the PC may advance.
type DecodedInstruction struct {
	Opcode    byte
	ExtOpcode byte

	Class Class
	Mode  AddrMode
	Index IndexSel

	Length      int
	LengthFinal bool

	AluOp AluOp
	RmwOp RmwOp
	Src   Reg
	Dst   Reg
	Cond  Cond
	Flags SpecialFlags

	// extended sub-decoder fields
	ShiftOp    ShiftOp
	ShiftCount int
	ExtendOp   ExtendOp
	FpOp       int

	Illegal bool
}

// group-1 operation selectors in aaa order
var groupOneOps = [8]AluOp{OpOra, OpAnd, OpEor, OpAdc, OpSta, OpLda, OpCmp, OpSbc}

// group-2 read-modify-write selectors in aaa order; STX/LDX slots are
// handled before this table applies.
var groupTwoOps = [8]RmwOp{RmwAsl, RmwRol, RmwLsr, RmwRor, RmwNone, RmwNone, RmwDec, RmwInc}

// Decode turns a fetched opcode into an instruction descriptor. For the
// extended page the second opcode byte is passed in ext; sub-decoders
// that carry an operation/mode byte receive it via extMode when
// haveExtMode is true, and report a provisional minimum Length with
// LengthFinal=false until then. Decode is pure: identical inputs give
// identical descriptors, and Length never depends on address or MMU
// state.
func Decode(opcode, ext, extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	var d DecodedInstruction
	if opcode == ExtPrefix && !mode.Emulation {
		d = decodeExtended(ext, extMode, haveExtMode, mode)
		d.ExtOpcode = ext
	} else {
		d = decodeLegacy(opcode, mode)
	}
	d.Opcode = opcode
	return d
}

func decodeLegacy(opcode byte, mode psw.Mode) DecodedInstruction {
	if d, ok := decodeOverride(opcode, mode); ok {
		return d
	}

	aaa := (opcode >> 5) & 7
	bbb := (opcode >> 2) & 7
	cc := opcode & 3

	switch cc {
	case 1:
		return decodeGroupOne(aaa, bbb, mode)
	case 2:
		return decodeGroupTwo(opcode, aaa, bbb, mode)
	case 3:
		return decodeGroupThree(aaa, bbb, mode)
	}
	return decodeGroupZero(opcode, aaa, bbb, mode)
}

// unknownLegacy applies the compatibility leniency policy: outside
// strict mode an unrecognized opcode is a one-byte no-op.
func unknownLegacy(mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: Control, Mode: Implied, Length: 1, LengthFinal: true}
	if !mode.Compat {
		d.Illegal = true
	}
	return d
}

// immWidth returns the immediate operand size in bytes: accumulator
// width for A-type operations, index width for X/Y-type ones.
func immWidth(op AluOp, mode psw.Mode) int {
	switch op {
	case OpLdx, OpLdy, OpCpx, OpCpy, OpStx, OpSty:
		return mode.IndexWidth.Bytes()
	}
	return mode.AccumWidth.Bytes()
}

func decodeGroupOne(aaa, bbb byte, mode psw.Mode) DecodedInstruction {
	op := groupOneOps[aaa]
	d := DecodedInstruction{Class: Alu, AluOp: op, LengthFinal: true}

	switch bbb {
	case 0: // (dp,X)
		d.Mode = DirectIndirectX
		d.Length = 2
	case 1: // dp
		d.Mode = DirectPage
		d.Length = 2
	case 2: // #imm
		d.Mode = Immediate
		d.Length = 1 + immWidth(op, mode)
	case 3: // abs
		d.Mode = Absolute
		d.Length = 3
	case 4: // (dp),Y
		d.Mode = DirectIndirect
		d.Index = IndexY
		d.Length = 2
	case 5: // dp,X
		d.Mode = DirectPage
		d.Index = IndexX
		d.Length = 2
	case 6: // abs,Y
		d.Mode = Absolute
		d.Index = IndexY
		d.Length = 3
	case 7: // abs,X
		d.Mode = Absolute
		d.Index = IndexX
		d.Length = 3
	}
	return d
}

func decodeGroupTwo(opcode, aaa, bbb byte, mode psw.Mode) DecodedInstruction {
	// STX and LDX keep the load/store-index slots of the group
	switch {
	case aaa == 4: // STX
		switch bbb {
		case 1:
			return DecodedInstruction{Class: Alu, AluOp: OpStx, Mode: DirectPage, Length: 2, LengthFinal: true}
		case 3:
			return DecodedInstruction{Class: Alu, AluOp: OpStx, Mode: Absolute, Length: 3, LengthFinal: true}
		case 5:
			return DecodedInstruction{Class: Alu, AluOp: OpStx, Mode: DirectPage, Index: IndexY, Length: 2, LengthFinal: true}
		}
	case aaa == 5: // LDX
		switch bbb {
		case 0:
			return DecodedInstruction{Class: Alu, AluOp: OpLdx, Mode: Immediate,
				Length: 1 + immWidth(OpLdx, mode), LengthFinal: true}
		case 1:
			return DecodedInstruction{Class: Alu, AluOp: OpLdx, Mode: DirectPage, Length: 2, LengthFinal: true}
		case 3:
			return DecodedInstruction{Class: Alu, AluOp: OpLdx, Mode: Absolute, Length: 3, LengthFinal: true}
		case 5:
			return DecodedInstruction{Class: Alu, AluOp: OpLdx, Mode: DirectPage, Index: IndexY, Length: 2, LengthFinal: true}
		case 7:
			return DecodedInstruction{Class: Alu, AluOp: OpLdx, Mode: Absolute, Index: IndexY, Length: 3, LengthFinal: true}
		}
	}

	// the (dp) column carries the group-1 operations
	if bbb == 4 {
		op := groupOneOps[aaa]
		return DecodedInstruction{Class: Alu, AluOp: op, Mode: DirectIndirect, Length: 2, LengthFinal: true}
	}

	rmw := groupTwoOps[aaa]
	if rmw == RmwNone {
		return unknownLegacy(mode)
	}
	d := DecodedInstruction{Class: ReadModifyWrite, RmwOp: rmw, LengthFinal: true}
	switch bbb {
	case 1: // dp
		d.Mode = DirectPage
		d.Length = 2
	case 2: // accumulator forms are overrides; anything left is unknown
		return unknownLegacy(mode)
	case 3: // abs
		d.Mode = Absolute
		d.Length = 3
	case 5: // dp,X
		d.Mode = DirectPage
		d.Index = IndexX
		d.Length = 2
	case 7: // abs,X
		d.Mode = Absolute
		d.Index = IndexX
		d.Length = 3
	default:
		return unknownLegacy(mode)
	}
	return d
}

// decodeGroupThree covers the wide addressing forms: stack-relative,
// 24-bit long, and the indirect-long column. They are native-mode only;
// in emulation mode the whole group falls back to the unknown-opcode
// policy (the xB and x1B transfer columns are overrides and decode in
// both modes).
func decodeGroupThree(aaa, bbb byte, mode psw.Mode) DecodedInstruction {
	if mode.Emulation {
		return unknownLegacy(mode)
	}
	op := groupOneOps[aaa]
	d := DecodedInstruction{Class: Alu, AluOp: op, LengthFinal: true}
	switch bbb {
	case 0: // sr,S
		d.Mode = StackRelative
		d.Length = 2
	case 1: // [dp]
		d.Mode = DirectIndirectLong
		d.Length = 2
	case 3: // long
		d.Mode = AbsoluteLong
		d.Length = 4
	case 4: // (sr,S),Y
		d.Mode = StackRelativeIndirectY
		d.Index = IndexY
		d.Length = 2
	case 5: // [dp],Y
		d.Mode = DirectIndirectLong
		d.Index = IndexY
		d.Length = 2
	case 7: // long,X
		d.Mode = AbsoluteLong
		d.Index = IndexX
		d.Length = 4
	default:
		return unknownLegacy(mode)
	}
	return d
}

func decodeGroupZero(opcode, aaa, bbb byte, mode psw.Mode) DecodedInstruction {
	// conditional branches occupy the bbb=100 column
	if bbb == 4 {
		conds := [8]Cond{CondPl, CondMi, CondVc, CondVs, CondCc, CondCs, CondNe, CondEq}
		return DecodedInstruction{Class: Branch, Mode: Relative, Cond: conds[aaa],
			Length: 2, LengthFinal: true}
	}

	// the regular LDY/CPY/CPX/BIT/STY columns
	form := func(op AluOp, m AddrMode, idx IndexSel, operand int) DecodedInstruction {
		return DecodedInstruction{Class: Alu, AluOp: op, Mode: m, Index: idx,
			Length: 1 + operand, LengthFinal: true}
	}

	switch opcode {
	case 0x24:
		return form(OpBit, DirectPage, IndexNone, 1)
	case 0x2C:
		return form(OpBit, Absolute, IndexNone, 2)
	case 0x34:
		return form(OpBit, DirectPage, IndexX, 1)
	case 0x3C:
		return form(OpBit, Absolute, IndexX, 2)
	case 0x64:
		return form(OpStz, DirectPage, IndexNone, 1)
	case 0x74:
		return form(OpStz, DirectPage, IndexX, 1)
	case 0x9C:
		return form(OpStz, Absolute, IndexNone, 2)
	case 0x84:
		return form(OpSty, DirectPage, IndexNone, 1)
	case 0x8C:
		return form(OpSty, Absolute, IndexNone, 2)
	case 0x94:
		return form(OpSty, DirectPage, IndexX, 1)
	case 0xA0:
		return form(OpLdy, Immediate, IndexNone, immWidth(OpLdy, mode))
	case 0xA4:
		return form(OpLdy, DirectPage, IndexNone, 1)
	case 0xAC:
		return form(OpLdy, Absolute, IndexNone, 2)
	case 0xB4:
		return form(OpLdy, DirectPage, IndexX, 1)
	case 0xBC:
		return form(OpLdy, Absolute, IndexX, 2)
	case 0xC0:
		return form(OpCpy, Immediate, IndexNone, immWidth(OpCpy, mode))
	case 0xC4:
		return form(OpCpy, DirectPage, IndexNone, 1)
	case 0xCC:
		return form(OpCpy, Absolute, IndexNone, 2)
	case 0xE0:
		return form(OpCpx, Immediate, IndexNone, immWidth(OpCpx, mode))
	case 0xE4:
		return form(OpCpx, DirectPage, IndexNone, 1)
	case 0xEC:
		return form(OpCpx, Absolute, IndexNone, 2)
	}
	return unknownLegacy(mode)
}

// decodeOverride handles the opcodes that do not fit the regular
// grouping and must be matched by exact value: transfers, stack and
// flag operations, jumps and the control instructions.
func decodeOverride(opcode byte, mode psw.Mode) (DecodedInstruction, bool) {
	impl := func(class Class) DecodedInstruction {
		return DecodedInstruction{Class: class, Mode: Implied, Length: 1, LengthFinal: true}
	}
	ctl := func(flags SpecialFlags) DecodedInstruction {
		d := impl(Control)
		d.Flags = flags
		return d
	}
	xfer := func(src, dst Reg) DecodedInstruction {
		d := impl(Transfer)
		d.Src = src
		d.Dst = dst
		return d
	}
	accRmw := func(op RmwOp) DecodedInstruction {
		d := impl(ReadModifyWrite)
		d.RmwOp = op
		d.Dst = RegA
		return d
	}
	regRmw := func(op RmwOp, r Reg) DecodedInstruction {
		d := impl(ReadModifyWrite)
		d.RmwOp = op
		d.Dst = r
		return d
	}
	push := func(r Reg) DecodedInstruction {
		d := impl(Stack)
		d.Src = r
		return d
	}
	pull := func(r Reg) DecodedInstruction {
		d := impl(Stack)
		d.Dst = r
		return d
	}

	switch opcode {
	// control
	case 0x00:
		return ctl(FlagBrk), true
	case 0x40:
		return ctl(FlagRti), true
	case 0x60:
		return ctl(FlagRts), true
	case 0x6B:
		return ctl(FlagRtl), true
	case 0xCB:
		return ctl(FlagWai), true
	case 0xDB:
		return ctl(FlagStp), true
	case 0xFB:
		return ctl(FlagXce), true
	case 0xEA: // NOP
		return impl(Control), true

	// jumps and calls
	case 0x20:
		return DecodedInstruction{Class: Jump, Mode: Absolute, Flags: FlagJsr,
			Length: 3, LengthFinal: true}, true
	case 0x22:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteLong, Flags: FlagJsl,
			Length: 4, LengthFinal: true}, true
	case 0x4C:
		return DecodedInstruction{Class: Jump, Mode: Absolute, Flags: FlagJmp,
			Length: 3, LengthFinal: true}, true
	case 0x5C:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteLong, Flags: FlagJml,
			Length: 4, LengthFinal: true}, true
	case 0x6C:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteIndirect, Flags: FlagJmp,
			Length: 3, LengthFinal: true}, true
	case 0x7C:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteIndirectX, Flags: FlagJmp,
			Length: 3, LengthFinal: true}, true
	case 0xDC:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteIndirectLong, Flags: FlagJml,
			Length: 3, LengthFinal: true}, true
	case 0xFC:
		return DecodedInstruction{Class: Jump, Mode: AbsoluteIndirectX, Flags: FlagJsr,
			Length: 3, LengthFinal: true}, true

	// unconditional branches
	case 0x80:
		return DecodedInstruction{Class: Branch, Mode: Relative, Cond: CondAlways,
			Length: 2, LengthFinal: true}, true
	case 0x82:
		return DecodedInstruction{Class: Branch, Mode: RelativeLong, Cond: CondAlways,
			Length: 3, LengthFinal: true}, true

	// stack
	case 0x08:
		return push(RegP), true
	case 0x28:
		return pull(RegP), true
	case 0x48:
		return push(RegA), true
	case 0x68:
		return pull(RegA), true
	case 0x5A:
		return push(RegY), true
	case 0x7A:
		return pull(RegY), true
	case 0xDA:
		return push(RegX), true
	case 0xFA:
		return pull(RegX), true
	case 0x0B:
		return push(RegD), true
	case 0x2B:
		return pull(RegD), true
	case 0x8B:
		return push(RegB), true
	case 0xAB:
		return pull(RegB), true
	case 0x62:
		return DecodedInstruction{Class: Stack, Mode: RelativeLong, Flags: FlagPer,
			Length: 3, LengthFinal: true}, true
	case 0xD4: // PEI dp
		return DecodedInstruction{Class: Stack, Mode: DirectIndirect,
			Length: 2, LengthFinal: true}, true
	case 0xF4: // PEA abs
		return DecodedInstruction{Class: Stack, Mode: Absolute,
			Length: 3, LengthFinal: true}, true

	// flag operations
	case 0x18, 0x38, 0x58, 0x78, 0xB8, 0xD8, 0xF8:
		return impl(FlagOp), true
	case 0xC2:
		return DecodedInstruction{Class: FlagOp, Mode: Immediate, Flags: FlagRep,
			Length: 2, LengthFinal: true}, true
	case 0xE2:
		return DecodedInstruction{Class: FlagOp, Mode: Immediate, Flags: FlagSep,
			Length: 2, LengthFinal: true}, true

	// transfers
	case 0x8A:
		return xfer(RegX, RegA), true
	case 0xAA:
		return xfer(RegA, RegX), true
	case 0x98:
		return xfer(RegY, RegA), true
	case 0xA8:
		return xfer(RegA, RegY), true
	case 0x9A:
		return xfer(RegX, RegS), true
	case 0xBA:
		return xfer(RegS, RegX), true
	case 0x9B:
		return xfer(RegX, RegY), true
	case 0xBB:
		return xfer(RegY, RegX), true
	case 0x1B:
		return xfer(RegA, RegS), true
	case 0x3B:
		return xfer(RegS, RegA), true
	case 0x5B:
		return xfer(RegA, RegD), true
	case 0x7B:
		return xfer(RegD, RegA), true
	case 0xEB: // XBA: swap accumulator halves
		return xfer(RegA, RegA), true

	// register increments and decrements
	case 0x1A:
		return accRmw(RmwInc), true
	case 0x3A:
		return accRmw(RmwDec), true
	case 0x88:
		return regRmw(RmwDec, RegY), true
	case 0xC8:
		return regRmw(RmwInc, RegY), true
	case 0xCA:
		return regRmw(RmwDec, RegX), true
	case 0xE8:
		return regRmw(RmwInc, RegX), true

	// accumulator shift forms
	case 0x0A:
		return accRmw(RmwAsl), true
	case 0x2A:
		return accRmw(RmwRol), true
	case 0x4A:
		return accRmw(RmwLsr), true
	case 0x6A:
		return accRmw(RmwRor), true

	// test-and-set/reset bits
	case 0x04:
		return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwTsb, Mode: DirectPage,
			Length: 2, LengthFinal: true}, true
	case 0x0C:
		return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwTsb, Mode: Absolute,
			Length: 3, LengthFinal: true}, true
	case 0x14:
		return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwTrb, Mode: DirectPage,
			Length: 2, LengthFinal: true}, true
	case 0x1C:
		return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwTrb, Mode: Absolute,
			Length: 3, LengthFinal: true}, true

	// block moves
	case 0x44, 0x54:
		return DecodedInstruction{Class: BlockMove, Mode: BlockMovePair,
			Length: 3, LengthFinal: true}, true

	// STA #imm slot carries BIT #imm
	case 0x89:
		return DecodedInstruction{Class: Alu, AluOp: OpBit, Mode: Immediate,
			Length: 1 + immWidth(OpBit, mode), LengthFinal: true}, true

	// STX abs,X slot carries STZ abs,X
	case 0x9E:
		return DecodedInstruction{Class: Alu, AluOp: OpStz, Mode: Absolute, Index: IndexX,
			Length: 3, LengthFinal: true}, true
	}

	return DecodedInstruction{}, false
}
