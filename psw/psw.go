package psw

/**
Processor status register package.

The M65832 P register is 14 bits wide: the classic 6502 flags in the
low byte, and the width / privilege / mode flags above them.
*/

// flag bit positions in the P register
const cFlag = 0
const zFlag = 1
const iFlag = 2
const dFlag = 3
const x0Flag = 4
const x1Flag = 5
const m0Flag = 6
const m1Flag = 7
const vFlag = 8
const nFlag = 9
const eFlag = 10
const sFlag = 11
const rFlag = 12
const kFlag = 13

// Width of a register operand as selected by the M1:M0 / X1:X0 fields.
type Width int

// register width modes
const (
	W8 Width = iota
	W16
	W32
)

// Bytes returns the operand size in bytes for the width.
func (w Width) Bytes() int {
	switch w {
	case W16:
		return 2
	case W32:
		return 4
	}
	return 1
}

// PSW keeps the processor status register
type PSW uint16

// Mode is a snapshot of the decode-relevant processor state. It is
// passed explicitly to decode / address / translate calls, so the same
// functions are testable with varied contexts.
type Mode struct {
	Emulation  bool
	Supervisor bool
	Compat     bool
	AccumWidth Width
	IndexWidth Width
}

// Get returns the current processor status register
func (psw *PSW) Get() uint16 {
	return uint16(*psw)
}

// Set the P register value
func (psw *PSW) Set(p uint16) {
	*psw = PSW(p)
}

// AccumWidth returns the accumulator width from the M1:M0 field.
// In emulation mode the stored field is ignored and the width is 8 bit.
func (psw *PSW) AccumWidth() Width {
	if psw.E() {
		return W8
	}
	return Width((*psw >> m0Flag) & 3)
}

// IndexWidth returns the index register width from the X1:X0 field.
// In emulation mode the stored field is ignored and the width is 8 bit.
func (psw *PSW) IndexWidth() Width {
	if psw.E() {
		return W8
	}
	return Width((*psw >> x0Flag) & 3)
}

// SetAccumWidth stores the M1:M0 field
func (psw *PSW) SetAccumWidth(w Width) {
	*psw = (*psw &^ (3 << m0Flag)) | PSW(w)<<m0Flag
}

// SetIndexWidth stores the X1:X0 field
func (psw *PSW) SetIndexWidth(w Width) {
	*psw = (*psw &^ (3 << x0Flag)) | PSW(w)<<x0Flag
}

// Mode returns the decode context derived from the current P value.
// Compatibility leniency is active when K is set or the accumulator is
// 32 bit wide, as the hardware decodes it.
func (psw *PSW) Mode() Mode {
	aw := psw.AccumWidth()
	return Mode{
		Emulation:  psw.E(),
		Supervisor: psw.S(),
		Compat:     psw.K() || aw == W32,
		AccumWidth: aw,
		IndexWidth: psw.IndexWidth(),
	}
}

// C returns the carry flag
func (psw *PSW) C() bool {
	return psw.getFlag(cFlag)
}

// SetC sets the carry flag
func (psw *PSW) SetC(status bool) {
	psw.setFlag(cFlag, status)
}

// Z returns the zero flag
func (psw *PSW) Z() bool {
	return psw.getFlag(zFlag)
}

// SetZ sets the zero flag
func (psw *PSW) SetZ(status bool) {
	psw.setFlag(zFlag, status)
}

// I returns the IRQ disable flag
func (psw *PSW) I() bool {
	return psw.getFlag(iFlag)
}

// SetI sets the IRQ disable flag
func (psw *PSW) SetI(status bool) {
	psw.setFlag(iFlag, status)
}

// D returns the decimal mode flag
func (psw *PSW) D() bool {
	return psw.getFlag(dFlag)
}

// SetD sets the decimal mode flag
func (psw *PSW) SetD(status bool) {
	psw.setFlag(dFlag, status)
}

// V returns the overflow flag
func (psw *PSW) V() bool {
	return psw.getFlag(vFlag)
}

// SetV sets the overflow flag
func (psw *PSW) SetV(status bool) {
	psw.setFlag(vFlag, status)
}

// N returns the negative flag
func (psw *PSW) N() bool {
	return psw.getFlag(nFlag)
}

// SetN sets the negative flag
func (psw *PSW) SetN(status bool) {
	psw.setFlag(nFlag, status)
}

// E returns the emulation mode flag
func (psw *PSW) E() bool {
	return psw.getFlag(eFlag)
}

// SetE sets the emulation mode flag
func (psw *PSW) SetE(status bool) {
	psw.setFlag(eFlag, status)
}

// S returns the supervisor flag
func (psw *PSW) S() bool {
	return psw.getFlag(sFlag)
}

// SetS sets the supervisor flag
func (psw *PSW) SetS(status bool) {
	psw.setFlag(sFlag, status)
}

// R returns the register window flag
func (psw *PSW) R() bool {
	return psw.getFlag(rFlag)
}

// SetR sets the register window flag
func (psw *PSW) SetR(status bool) {
	psw.setFlag(rFlag, status)
}

// K returns the compatibility mode flag
func (psw *PSW) K() bool {
	return psw.getFlag(kFlag)
}

// SetK sets the compatibility mode flag
func (psw *PSW) SetK(status bool) {
	psw.setFlag(kFlag, status)
}

// generic get flag function
func (psw *PSW) getFlag(flag uint) bool {
	return (*psw & (1 << flag)) > 0
}

// generic set flag function
func (psw *PSW) setFlag(flag uint, status bool) {
	if status {
		*psw |= (1 << flag)
	} else {
		*psw &^= (1 << flag)
	}
}

// GetFlags returns the set flags as a short status string
func (psw *PSW) GetFlags() string {
	var flags string
	if psw.S() {
		flags = "S"
	} else {
		flags = "u"
	}
	if psw.E() {
		flags += "E"
	} else {
		flags += " "
	}
	if psw.N() {
		flags += "N"
	} else {
		flags += " "
	}
	if psw.Z() {
		flags += "Z"
	} else {
		flags += " "
	}
	if psw.V() {
		flags += "V"
	} else {
		flags += " "
	}
	if psw.C() {
		flags += "C"
	} else {
		flags += " "
	}
	if psw.K() {
		flags += "K"
	} else {
		flags += " "
	}
	return "[" + flags + "]"
}
