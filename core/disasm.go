package core

import (
	"fmt"
	"strings"
)

var aluNames = map[AluOp]string{
	OpOra: "ORA", OpAnd: "AND", OpEor: "EOR", OpAdc: "ADC",
	OpSta: "STA", OpLda: "LDA", OpCmp: "CMP", OpSbc: "SBC",
	OpBit: "BIT", OpStz: "STZ",
	OpLdx: "LDX", OpLdy: "LDY", OpStx: "STX", OpSty: "STY",
	OpCpx: "CPX", OpCpy: "CPY",
	OpMul: "MUL", OpMulu: "MULU", OpDiv: "DIV", OpDivu: "DIVU",
	OpCas: "CAS", OpLli: "LLI", OpSci: "SCI",
	OpLea: "LEA", OpLdq: "LDQ", OpStq: "STQ",
}

var rmwNames = map[RmwOp]string{
	RmwAsl: "ASL", RmwRol: "ROL", RmwLsr: "LSR", RmwRor: "ROR",
	RmwInc: "INC", RmwDec: "DEC", RmwNot: "NOT",
	RmwTsb: "TSB", RmwTrb: "TRB",
}

var condNames = map[Cond]string{
	CondAlways: "BRA",
	CondPl:     "BPL", CondMi: "BMI", CondVc: "BVC", CondVs: "BVS",
	CondCc: "BCC", CondCs: "BCS", CondNe: "BNE", CondEq: "BEQ",
}

var regNames = map[Reg]string{
	RegA: "A", RegX: "X", RegY: "Y", RegS: "S", RegD: "D",
	RegB: "B", RegVBR: "VBR", RegT: "T", RegP: "P",
}

// Disassemble renders a decoded instruction with its fetched bytes as
// an assembler-style line. It is a monitor aid, not a full round-trip
// assembler syntax.
func Disassemble(d DecodedInstruction, bytes []byte) string {
	if d.Illegal {
		return "???"
	}

	mn := mnemonic(d)
	op := formatOperand(d, operandBytes(d, bytes))
	if op == "" {
		return mn
	}
	return mn + " " + op
}

func mnemonic(d DecodedInstruction) string {
	switch d.Class {
	case Alu, ExtendedAlu:
		if n, ok := aluNames[d.AluOp]; ok {
			return n
		}
	case ReadModifyWrite:
		if n, ok := rmwNames[d.RmwOp]; ok {
			return n
		}
	case Branch:
		if d.Mode == RelativeLong && d.Cond == CondAlways {
			return "BRL"
		}
		if n, ok := condNames[d.Cond]; ok {
			return n
		}
	case Jump:
		switch {
		case d.Flags.Has(FlagJsr):
			return "JSR"
		case d.Flags.Has(FlagJsl):
			return "JSL"
		case d.Flags.Has(FlagJml):
			return "JML"
		}
		return "JMP"
	case Stack:
		return stackMnemonic(d)
	case Transfer:
		if d.Src == RegA && d.Dst == RegA {
			return "XBA"
		}
		if d.Src == RegT {
			return "TTA"
		}
		if d.Dst == RegT {
			return "TAT"
		}
		return "T" + regNames[d.Src] + regNames[d.Dst]
	case FlagOp:
		switch {
		case d.Flags.Has(FlagRep):
			return "REP"
		case d.Flags.Has(FlagSep):
			return "SEP"
		case d.Flags.Has(FlagRSet):
			return "ENR"
		case d.Flags.Has(FlagRClr):
			return "DSR"
		}
		return "FLG"
	case Control:
		return controlMnemonic(d)
	case BlockMove:
		return "MVx"
	case RegisterAlu:
		if n, ok := aluNames[d.AluOp]; ok {
			return n + ".R"
		}
		return "ALU.R"
	case Shifter:
		names := map[ShiftOp]string{
			ShiftAsl: "ASL", ShiftLsr: "LSR", ShiftAsr: "ASR",
			ShiftRol: "ROL", ShiftRor: "ROR",
		}
		return fmt.Sprintf("%s.B #%d", names[d.ShiftOp], d.ShiftCount)
	case Extend:
		names := map[ExtendOp]string{
			ExtSignByte: "SXB", ExtSignWord: "SXW",
			ExtZeroByte: "ZXB", ExtZeroWord: "ZXW",
			ExtCountLeadZeros: "CLZ", ExtCountTrailZeros: "CTZ",
			ExtPopCount: "POPCNT",
		}
		return names[d.ExtendOp]
	}
	return "???"
}

func stackMnemonic(d DecodedInstruction) string {
	switch d.Mode {
	case RelativeLong:
		return "PER"
	case DirectIndirect:
		return "PEI"
	case Absolute:
		return "PEA"
	}
	if d.Src != RegNone {
		return "PH" + regNames[d.Src]
	}
	return "PL" + regNames[d.Dst]
}

func controlMnemonic(d DecodedInstruction) string {
	switch {
	case d.Flags.Has(FlagBrk):
		return "BRK"
	case d.Flags.Has(FlagRti):
		return "RTI"
	case d.Flags.Has(FlagRts):
		return "RTS"
	case d.Flags.Has(FlagRtl):
		return "RTL"
	case d.Flags.Has(FlagWai):
		return "WAI"
	case d.Flags.Has(FlagStp):
		return "STP"
	case d.Flags.Has(FlagXce):
		return "XCE"
	case d.Flags.Has(FlagSetVbr):
		return "SV"
	case d.Flags.Has(FlagSetBase):
		if d.Dst == RegB {
			return "SB"
		}
		return "SD"
	case d.Flags.Has(FlagCop):
		if d.Mode == Immediate {
			return "TRAP"
		}
		return "FOP"
	}
	return "NOP"
}

func formatOperand(d DecodedInstruction, op []byte) string {
	idx := ""
	switch d.Index {
	case IndexX:
		idx = ",X"
	case IndexY:
		idx = ",Y"
	}

	switch d.Mode {
	case Implied:
		if d.Class == ReadModifyWrite && d.Dst == RegA {
			return "A"
		}
		return ""
	case Immediate:
		return "#$" + hexBytes(op)
	case DirectPage:
		if len(op) == 0 {
			return ""
		}
		return fmt.Sprintf("$%02X%s", op[0], idx)
	case DirectIndirectX:
		return fmt.Sprintf("($%02X,X)", byteOr0(op))
	case DirectIndirect:
		if d.Index == IndexY {
			return fmt.Sprintf("($%02X),Y", byteOr0(op))
		}
		return fmt.Sprintf("($%02X)", byteOr0(op))
	case DirectIndirectLong:
		return fmt.Sprintf("[$%02X]%s", byteOr0(op), idx)
	case Absolute:
		return fmt.Sprintf("$%04X%s", operandU16(op), idx)
	case AbsoluteLong:
		return fmt.Sprintf("$%06X%s", operandU24(op), idx)
	case StackRelative:
		return fmt.Sprintf("$%02X,S", byteOr0(op))
	case StackRelativeIndirectY:
		return fmt.Sprintf("($%02X,S),Y", byteOr0(op))
	case Relative:
		return fmt.Sprintf("%+d", int8(byteOr0(op)))
	case RelativeLong:
		return fmt.Sprintf("%+d", int16(operandU16(op)))
	case AbsoluteIndirect:
		return fmt.Sprintf("($%04X)", operandU16(op))
	case AbsoluteIndirectX:
		return fmt.Sprintf("($%04X,X)", operandU16(op))
	case AbsoluteIndirectLong:
		return fmt.Sprintf("[$%04X]", operandU16(op))
	case BlockMovePair:
		if len(op) >= 2 {
			return fmt.Sprintf("$%02X,$%02X", op[1], op[0])
		}
		return ""
	}
	return ""
}

func byteOr0(op []byte) byte {
	if len(op) == 0 {
		return 0
	}
	return op[0]
}

// hexBytes renders a little-endian immediate most significant first.
func hexBytes(op []byte) string {
	var sb strings.Builder
	for i := len(op) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02X", op[i])
	}
	if sb.Len() == 0 {
		return "00"
	}
	return sb.String()
}
