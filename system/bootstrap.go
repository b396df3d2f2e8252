package system

/*
	Minimal bootstrap code -> load to memory, start executing.
*/

const (
	// BootBase is the base bootstrap address
	BootBase = 0x2000
)

var bootcode = [...]byte{
	0x18,       // CLC                  ; leave emulation mode
	0xFB,       // XCE
	0xC2, 0xA0, // REP #$A0             ; clear the high width bits
	0xE2, 0x50, // SEP #$50             ; 16-bit accumulator and index
	0xA9, 0x00, 0x00, // LDA #0
	0xA2, 0x00, 0x00, // LDX #0
	0x9C, 0x00, 0x30, // STZ $3000
	0xEA, // NOP
	0xDB, // STP                  ; hand control back to the monitor
}

// Boot loads the bootstrap code and starts the front end on it.
func (sys *System) Boot() {
	sys.LoadImage(bootcode[:], BootBase)

	_ = sys.console.WriteConsole("Booting..\n")
	sys.Run()
}
