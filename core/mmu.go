package core

import (
	"fmt"

	"m65832/faults"
	"m65832/psw"
)

// WalkState is the page walker's position in a translation miss.
type WalkState int

// walker states
const (
	WalkIdle WalkState = iota
	WalkL1Requested
	WalkL1Pending
	WalkL2Requested
	WalkL2Pending
	WalkDone
	WalkFault
)

func (s WalkState) String() string {
	switch s {
	case WalkIdle:
		return "idle"
	case WalkL1Requested:
		return "l1-requested"
	case WalkL1Pending:
		return "l1-pending"
	case WalkL2Requested:
		return "l2-requested"
	case WalkL2Pending:
		return "l2-pending"
	case WalkDone:
		return "done"
	case WalkFault:
		return "fault"
	}
	return "unknown"
}

// PTEReader supplies 64-bit page table entries to the synchronous
// Translate facade.
type PTEReader interface {
	ReadPTE(addr uint64) PTE
}

// MMU translates 32-bit virtual addresses to physical addresses through
// a 16-entry TLB backed by a two-level page table walk. One miss may be
// outstanding at a time; a request while the walker is busy is a
// contract violation of the caller.
type MMU struct {
	Enabled      bool
	WriteProtect bool
	NXEnable     bool
	ASID         uint8
	PTBR         uint64

	TLB TLB

	state     WalkState
	reqVA     uint32
	reqAccess faults.Access
	reqSup    bool
	reqAddr   uint64

	result uint64
	fault  *faults.Fault

	// latched for the MMIO fault registers
	FaultVA   uint32
	FaultKind faults.Kind
}

func (m *MMU) State() WalkState {
	return m.state
}

// Reset aborts any in-progress walk and invalidates the whole TLB.
func (m *MMU) Reset() {
	m.state = WalkIdle
	m.fault = nil
	m.TLB.FlushAll()
}

func (m *MMU) check(writable, user, noExec bool, va uint32, access faults.Access, supervisor bool) *faults.Fault {
	if !supervisor && !user {
		return &faults.Fault{Kind: faults.PrivilegeViolation, VA: va, Access: access}
	}
	if access == faults.Write && !writable && (!supervisor || m.WriteProtect) {
		return &faults.Fault{Kind: faults.ReadOnlyViolation, VA: va, Access: access}
	}
	if access == faults.Execute && noExec && m.NXEnable {
		return &faults.Fault{Kind: faults.ExecuteViolation, VA: va, Access: access}
	}
	return nil
}

func (m *MMU) latch(f *faults.Fault) *faults.Fault {
	m.FaultVA = f.VA
	m.FaultKind = f.Kind
	return f
}

// Request starts a translation. A TLB hit (or a disabled MMU) resolves
// immediately with done=true; a miss starts the walker, and the caller
// must then drive PendingRequest/Acknowledge until Result reports
// completion. Calling Request while a walk is outstanding is an error.
func (m *MMU) Request(va uint32, access faults.Access, supervisor bool) (pa uint64, f *faults.Fault, done bool, err error) {
	if m.state != WalkIdle {
		return 0, nil, false, fmt.Errorf("mmu: translation requested while walker is %s", m.state)
	}

	if !m.Enabled {
		return uint64(va), nil, true, nil
	}

	vpn := va >> PageShift
	if e, ok := m.TLB.Lookup(vpn, m.ASID); ok {
		if f := m.check(e.Writable, e.User, e.NoExec, va, access, supervisor); f != nil {
			return 0, m.latch(f), true, nil
		}
		m.TLB.Hits++
		return e.PPN<<PageShift | uint64(va&0xFFF), nil, true, nil
	}

	m.TLB.Misses++
	m.reqVA = va
	m.reqAccess = access
	m.reqSup = supervisor
	m.reqAddr = m.PTBR + uint64(va>>22)*8
	m.state = WalkL1Requested
	return 0, nil, false, nil
}

// PendingRequest reports the page-table read the walker is waiting on.
// Polling it hands the request to the memory system: the walker moves
// from requested to pending and will not re-issue the address.
func (m *MMU) PendingRequest() (addr uint64, ok bool) {
	switch m.state {
	case WalkL1Requested:
		m.state = WalkL1Pending
		return m.reqAddr, true
	case WalkL2Requested:
		m.state = WalkL2Pending
		return m.reqAddr, true
	}
	return 0, false
}

// Acknowledge delivers the PTE for the outstanding page-table read.
func (m *MMU) Acknowledge(pte PTE) {
	switch m.state {
	case WalkL1Pending:
		if !pte.Present() {
			m.fault = m.latch(&faults.Fault{Kind: faults.L1NotPresent, VA: m.reqVA, Access: m.reqAccess})
			m.state = WalkFault
			return
		}
		m.reqAddr = pte.PPN()<<PageShift + uint64(m.reqVA>>12&0x3FF)*8
		m.state = WalkL2Requested

	case WalkL2Pending:
		if !pte.Present() {
			m.fault = m.latch(&faults.Fault{Kind: faults.L2NotPresent, VA: m.reqVA, Access: m.reqAccess})
			m.state = WalkFault
			return
		}
		if f := m.check(pte.Writable(), pte.User(), pte.NoExec(), m.reqVA, m.reqAccess, m.reqSup); f != nil {
			m.fault = m.latch(f)
			m.state = WalkFault
			return
		}
		m.TLB.Install(TLBEntry{
			VPN:      m.reqVA >> PageShift,
			ASID:     m.ASID,
			PPN:      pte.PPN(),
			Writable: pte.Writable(),
			User:     pte.User(),
			Global:   pte.Global(),
			NoExec:   pte.NoExec(),
			Accessed: pte.Accessed(),
			Dirty:    pte.Dirty(),
		})
		m.result = pte.PPN()<<PageShift | uint64(m.reqVA&0xFFF)
		m.state = WalkDone
	}
}

// Result collects the outcome of a finished walk and returns the
// walker to idle.
func (m *MMU) Result() (pa uint64, f *faults.Fault, done bool) {
	switch m.state {
	case WalkDone:
		m.state = WalkIdle
		return m.result, nil, true
	case WalkFault:
		m.state = WalkIdle
		f = m.fault
		m.fault = nil
		return 0, f, true
	}
	return 0, nil, false
}

// Translate runs a full translation synchronously, driving the walker
// against the given page-table reader until it resolves.
func (m *MMU) Translate(va uint32, access faults.Access, supervisor bool, tables PTEReader) (uint64, *faults.Fault, error) {
	pa, f, done, err := m.Request(va, access, supervisor)
	if err != nil {
		return 0, nil, err
	}
	if done {
		return pa, f, nil
	}
	for {
		if addr, ok := m.PendingRequest(); ok {
			m.Acknowledge(tables.ReadPTE(addr))
		}
		if pa, f, done := m.Result(); done {
			return pa, f, nil
		}
	}
}

// TranslateFor picks the privilege level out of the mode state.
func (m *MMU) TranslateFor(va uint32, access faults.Access, mode psw.Mode, tables PTEReader) (uint64, *faults.Fault, error) {
	return m.Translate(va, access, mode.Supervisor, tables)
}
