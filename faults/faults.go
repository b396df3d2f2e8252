package faults

import "fmt"

/**
 * Fault and vector definitions for the M65832 front end.
 * Separate package exists mainly in order to avoid cyclic imports.
 */

// Access is the memory access type presented to the MMU.
type Access int

// access types
const (
	Read Access = iota
	Write
	Execute
)

func (a Access) String() string {
	switch a {
	case Write:
		return "write"
	case Execute:
		return "execute"
	}
	return "read"
}

// Kind tags a translation fault.
type Kind int

// translation fault kinds; zero is reserved for "no fault" in the
// memory-mapped fault register
const (
	PrivilegeViolation Kind = iota + 1
	ReadOnlyViolation
	ExecuteViolation
	L1NotPresent
	L2NotPresent
)

func (k Kind) String() string {
	switch k {
	case PrivilegeViolation:
		return "privilege violation"
	case ReadOnlyViolation:
		return "read-only violation"
	case ExecuteViolation:
		return "execute violation"
	case L1NotPresent:
		return "L1 not present"
	case L2NotPresent:
		return "L2 not present"
	}
	return "unknown fault"
}

// Fault reports a failed translation. It is a value handed to the
// external trap dispatcher, never a panic: the pipeline performs no
// recovery of its own.
type Fault struct {
	Kind   Kind
	VA     uint32
	Access Access
}

func (f *Fault) Error() string {
	return fmt.Sprintf("translation fault: %s at $%08X (%s)", f.Kind, f.VA, f.Access)
}

// exception vectors (native mode, 32-bit handlers)

// VecCop - coprocessor dispatch
const VecCop = 0x0000FFE4

// VecBrk - software break
const VecBrk = 0x0000FFE6

// VecAbort - aborted access
const VecAbort = 0x0000FFE8

// VecNmi - non maskable interrupt
const VecNmi = 0x0000FFEA

// VecIrq - interrupt request
const VecIrq = 0x0000FFEE

// VecPageFault - translation fault handler
const VecPageFault = 0x0000FFD0

// VecSyscall - TRAP #n system call base
const VecSyscall = 0x0000FFD4

// VecIllegalOp - illegal instruction handler
const VecIllegalOp = 0x0000FFF8

// emulation mode vectors (16-bit handlers, 6502 compatible)

// VecReset - reset vector
const VecReset = 0xFFFC

// VecIrqEmu - IRQ/BRK in emulation mode
const VecIrqEmu = 0xFFFE

// VecNmiEmu - NMI in emulation mode
const VecNmiEmu = 0xFFFA

// VecAbortEmu - ABORT in emulation mode
const VecAbortEmu = 0xFFF8
