package core

import (
	"m65832/psw"
)

// ShiftOp selects the barrel shifter operation.
type ShiftOp int

// barrel shifter operations
const (
	ShiftNone ShiftOp = iota
	ShiftAsl
	ShiftLsr
	ShiftAsr
	ShiftRol
	ShiftRor
)

// ExtendOp selects the operation of the extend/bit-scan unit.
type ExtendOp int

// extend operations
const (
	ExtNone ExtendOp = iota
	ExtSignByte
	ExtSignWord
	ExtZeroByte
	ExtZeroWord
	ExtCountLeadZeros
	ExtCountTrailZeros
	ExtPopCount
)

// RegAluOp is the operation nibble of the register-targeted ALU form.
type RegAluOp int

// register-ALU operations
const (
	RegAluLd RegAluOp = iota
	RegAluAdc
	RegAluSbc
	RegAluAnd
	RegAluOra
	RegAluEor
	RegAluCmp
	RegAluInc
	RegAluDec
	RegAluNot
)

// RegAluSrc is the source-form nibble of the register-targeted ALU.
type RegAluSrc int

// register-ALU source forms
const (
	SrcDpIndX RegAluSrc = iota // (dp,X)
	SrcDp
	SrcImm
	SrcAccum
	SrcDpIndY // (dp),Y
	SrcDpX
	SrcAbs
	SrcAbsX
	SrcAbsY
	SrcDpInd     // (dp)
	SrcDpIndLong // [dp]
	SrcX
	SrcY
)

// decodeExtended handles the second opcode page reached through the
// $02 prefix. Length always includes both the prefix and the extended
// opcode byte.
func decodeExtended(ext, extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	extAlu := func(op AluOp, m AddrMode, operand int) DecodedInstruction {
		return DecodedInstruction{Class: ExtendedAlu, AluOp: op, Mode: m,
			Length: 2 + operand, LengthFinal: true}
	}
	ctl := func(flags SpecialFlags, operand int) DecodedInstruction {
		return DecodedInstruction{Class: Control, Mode: Implied, Flags: flags,
			Length: 2 + operand, LengthFinal: true}
	}

	switch ext {
	// widening multiply and divide
	case 0x00:
		return extAlu(OpMul, DirectPage, 1)
	case 0x01:
		return extAlu(OpMulu, DirectPage, 1)
	case 0x02:
		return extAlu(OpMul, Absolute, 2)
	case 0x03:
		return extAlu(OpMulu, Absolute, 2)
	case 0x04:
		return extAlu(OpDiv, DirectPage, 1)
	case 0x05:
		return extAlu(OpDivu, DirectPage, 1)
	case 0x06:
		return extAlu(OpDiv, Absolute, 2)
	case 0x07:
		return extAlu(OpDivu, Absolute, 2)

	// atomics
	case 0x10:
		d := extAlu(OpCas, DirectPage, 1)
		d.Flags = FlagCas
		return d
	case 0x11:
		d := extAlu(OpCas, Absolute, 2)
		d.Flags = FlagCas
		return d
	case 0x12:
		d := extAlu(OpLli, DirectPage, 1)
		d.Flags = FlagLoadLinked
		return d
	case 0x13:
		d := extAlu(OpLli, Absolute, 2)
		d.Flags = FlagLoadLinked
		return d
	case 0x14:
		d := extAlu(OpSci, DirectPage, 1)
		d.Flags = FlagStoreConditional
		return d
	case 0x15:
		d := extAlu(OpSci, Absolute, 2)
		d.Flags = FlagStoreConditional
		return d

	// base register setters
	case 0x20: // SD #imm32
		d := ctl(FlagSetBase, 4)
		d.Mode = Immediate
		d.Dst = RegD
		return d
	case 0x21: // SD dp
		d := ctl(FlagSetBase, 1)
		d.Mode = DirectPage
		d.Dst = RegD
		return d
	case 0x22: // SB #imm32
		d := ctl(FlagSetBase, 4)
		d.Mode = Immediate
		d.Dst = RegB
		return d
	case 0x23: // SB dp
		d := ctl(FlagSetBase, 1)
		d.Mode = DirectPage
		d.Dst = RegB
		return d
	case 0x24: // SV #imm32, supervisor only
		d := ctl(FlagSetVbr, 4)
		d.Mode = Immediate
		d.Dst = RegVBR
		return d
	case 0x25: // SV dp
		d := ctl(FlagSetVbr, 1)
		d.Mode = DirectPage
		d.Dst = RegVBR
		return d

	// register window control
	case 0x30:
		return DecodedInstruction{Class: FlagOp, Mode: Implied, Flags: FlagRSet,
			Length: 2, LengthFinal: true}
	case 0x31:
		return DecodedInstruction{Class: FlagOp, Mode: Implied, Flags: FlagRClr,
			Length: 2, LengthFinal: true}

	// software trap
	case 0x40:
		d := ctl(FlagCop, 1)
		d.Mode = Immediate
		return d

	// memory ordering
	case 0x50, 0x51, 0x52:
		return ctl(0, 0)

	// 32-bit stack forms
	case 0x80:
		return DecodedInstruction{Class: Stack, Mode: Implied, Src: RegA, Length: 2, LengthFinal: true}
	case 0x81:
		return DecodedInstruction{Class: Stack, Mode: Implied, Dst: RegA, Length: 2, LengthFinal: true}
	case 0x82:
		return DecodedInstruction{Class: Stack, Mode: Implied, Src: RegX, Length: 2, LengthFinal: true}
	case 0x83:
		return DecodedInstruction{Class: Stack, Mode: Implied, Dst: RegX, Length: 2, LengthFinal: true}
	case 0x84:
		return DecodedInstruction{Class: Stack, Mode: Implied, Src: RegY, Length: 2, LengthFinal: true}
	case 0x85:
		return DecodedInstruction{Class: Stack, Mode: Implied, Dst: RegY, Length: 2, LengthFinal: true}
	case 0x8C:
		return DecodedInstruction{Class: Stack, Mode: Implied, Src: RegP, Length: 2, LengthFinal: true}
	case 0x8D:
		return DecodedInstruction{Class: Stack, Mode: Implied, Dst: RegP, Length: 2, LengthFinal: true}

	// temporary register transfers
	case 0x86:
		return DecodedInstruction{Class: Transfer, Mode: Implied, Src: RegT, Dst: RegA,
			Length: 2, LengthFinal: true}
	case 0x87:
		return DecodedInstruction{Class: Transfer, Mode: Implied, Src: RegA, Dst: RegT,
			Length: 2, LengthFinal: true}

	// quad load/store
	case 0x88:
		return extAlu(OpLdq, DirectPage, 1)
	case 0x89:
		return extAlu(OpLdq, Absolute, 2)
	case 0x8A:
		return extAlu(OpStq, DirectPage, 1)
	case 0x8B:
		return extAlu(OpStq, Absolute, 2)

	// load effective address
	case 0xA0:
		return extAlu(OpLea, DirectPage, 1)
	case 0xA1:
		d := extAlu(OpLea, DirectPage, 1)
		d.Index = IndexX
		return d
	case 0xA2:
		return extAlu(OpLea, Absolute, 2)
	case 0xA3:
		d := extAlu(OpLea, Absolute, 2)
		d.Index = IndexX
		return d

	// sub-decoded forms carrying an operation/mode byte
	case 0xE8:
		return decodeRegisterAlu(extMode, haveExtMode, mode)
	case 0xE9:
		return decodeShifter(extMode, haveExtMode, mode)
	case 0xEA:
		return decodeExtend(extMode, haveExtMode, mode)
	case 0xF0:
		return decodeFpu(extMode, haveExtMode, mode)
	}

	return unknownExtended(mode)
}

// unknownExtended mirrors unknownLegacy for the second page: the no-op
// still consumes the prefix and the extended opcode byte.
func unknownExtended(mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: Control, Mode: Implied, Length: 2, LengthFinal: true}
	if !mode.Compat {
		d.Illegal = true
	}
	return d
}

// regAluSrcBytes gives the operand bytes contributed by each source
// form, beyond the fixed prefix/opcode/mode/destination bytes.
func regAluSrcBytes(src RegAluSrc, mode psw.Mode) (int, bool) {
	switch src {
	case SrcDpIndX, SrcDp, SrcDpIndY, SrcDpX, SrcDpInd, SrcDpIndLong:
		return 1, true
	case SrcAbs, SrcAbsX, SrcAbsY:
		return 2, true
	case SrcImm:
		return mode.AccumWidth.Bytes(), true
	case SrcAccum, SrcX, SrcY:
		return 0, true
	}
	return 0, false
}

// decodeRegisterAlu handles $02 $E8: an operation/mode byte followed by
// a destination direct-page byte and the source operand. INC, DEC and
// NOT applied to a plain dp source collapse into an in-place
// read-modify-write with no separate source bytes.
func decodeRegisterAlu(extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: RegisterAlu, Mode: DirectPage, Length: 4}
	if !haveExtMode {
		return d
	}

	op := RegAluOp(extMode >> 4)
	src := RegAluSrc(extMode & 0x0F)
	if op > RegAluNot {
		return unknownExtended(mode)
	}
	n, ok := regAluSrcBytes(src, mode)
	if !ok {
		return unknownExtended(mode)
	}

	if src == SrcDp {
		switch op {
		case RegAluInc:
			return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwInc,
				Mode: DirectPage, Length: 4, LengthFinal: true}
		case RegAluDec:
			return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwDec,
				Mode: DirectPage, Length: 4, LengthFinal: true}
		case RegAluNot:
			return DecodedInstruction{Class: ReadModifyWrite, RmwOp: RmwNot,
				Mode: DirectPage, Length: 4, LengthFinal: true}
		}
	}

	d.AluOp = regAluToAluOp(op)
	d.Length = 4 + n
	d.LengthFinal = true
	return d
}

func regAluToAluOp(op RegAluOp) AluOp {
	switch op {
	case RegAluLd:
		return OpLda
	case RegAluAdc:
		return OpAdc
	case RegAluSbc:
		return OpSbc
	case RegAluAnd:
		return OpAnd
	case RegAluOra:
		return OpOra
	case RegAluEor:
		return OpEor
	case RegAluCmp:
		return OpCmp
	}
	return OpNone
}

// decodeShifter handles $02 $E9: operation/count byte, destination dp
// byte, source dp byte. Length is fixed at five but only final once the
// operation byte is present.
func decodeShifter(extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: Shifter, Mode: DirectPage, Length: 5}
	if !haveExtMode {
		return d
	}
	op := ShiftOp(extMode>>5) + 1
	if op > ShiftRor {
		return unknownExtended(mode)
	}
	d.ShiftOp = op
	d.ShiftCount = int(extMode & 0x1F)
	d.LengthFinal = true
	return d
}

// decodeExtend handles $02 $EA: operation byte, destination dp byte,
// source dp byte.
func decodeExtend(extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: Extend, Mode: DirectPage, Length: 5}
	if !haveExtMode {
		return d
	}
	ops := [7]ExtendOp{ExtSignByte, ExtSignWord, ExtZeroByte, ExtZeroWord,
		ExtCountLeadZeros, ExtCountTrailZeros, ExtPopCount}
	if int(extMode) >= len(ops) {
		return unknownExtended(mode)
	}
	d.ExtendOp = ops[extMode]
	d.LengthFinal = true
	return d
}

// decodeFpu handles $02 $F0: the coprocessor dispatch byte selects the
// floating-point operation and its operand form in the low nibble.
func decodeFpu(extMode byte, haveExtMode bool, mode psw.Mode) DecodedInstruction {
	d := DecodedInstruction{Class: Control, Mode: Implied, Flags: FlagCop, Length: 3}
	if !haveExtMode {
		return d
	}
	d.FpOp = int(extMode >> 4)
	switch extMode & 0x0F {
	case 0:
		d.Mode = DirectPage
		d.Length = 4
	case 1:
		d.Mode = Absolute
		d.Length = 5
	case 2: // register-pair form, one selector byte
		d.Length = 4
	default:
		d.Length = 3
	}
	d.LengthFinal = true
	return d
}
