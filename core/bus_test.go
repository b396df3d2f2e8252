package core

import (
	"testing"

	"m65832/faults"
)

func TestBus_ReadWrite(t *testing.T) {
	b := NewBus(&MMU{})

	b.WriteLong(0x1000, 0xDEADBEEF)
	if got := b.ReadLong(0x1000); got != 0xDEADBEEF {
		t.Errorf("long = %08X", got)
	}
	if got := b.ReadByte(0x1000); got != 0xEF {
		t.Errorf("low byte = %02X, want little-endian layout", got)
	}
	if got := b.ReadWord(0x1002); got != 0xDEAD {
		t.Errorf("high word = %04X", got)
	}

	b.WritePTE(0x2000, PTE(0x123456789ABCDEF0))
	if got := b.ReadPTE(0x2000); got != PTE(0x123456789ABCDEF0) {
		t.Errorf("pte = %016X", uint64(got))
	}

	// unmapped space reads back all-ones bytes
	if got := b.ReadByte(0xF0000000); got != 0xFF {
		t.Errorf("unmapped read = %02X, want FF", got)
	}
}

func TestBus_MMURegisters(t *testing.T) {
	mmu := &MMU{}
	b := NewBus(mmu)

	b.WriteLong(SysRegBase+RegMMUCR, MMUCREnable|MMUCRNXEnable)
	if !mmu.Enabled || mmu.WriteProtect || !mmu.NXEnable {
		t.Errorf("mmucr write: enabled=%v wp=%v nx=%v", mmu.Enabled, mmu.WriteProtect, mmu.NXEnable)
	}
	if got := b.ReadLong(SysRegBase + RegMMUCR); got&0xFF != MMUCREnable|MMUCRNXEnable {
		t.Errorf("mmucr read = %08X", got)
	}

	b.WriteLong(SysRegBase+RegPTBRLo, 0x00008000)
	b.WriteLong(SysRegBase+RegPTBRHi, 0x00000001)
	if mmu.PTBR != 0x1_0000_8000 {
		t.Errorf("ptbr = %X", mmu.PTBR)
	}

	b.WriteLong(SysRegBase+RegASID, 42)
	if mmu.ASID != 42 {
		t.Errorf("asid = %d", mmu.ASID)
	}

	// the address-space tag is eight bits wide
	b.WriteLong(SysRegBase+RegASID, 0x14A)
	if mmu.ASID != 0x4A {
		t.Errorf("asid = %d, want high bits dropped", mmu.ASID)
	}

	mmu.FaultVA = 0xCAFE0000
	mmu.FaultKind = faults.ReadOnlyViolation
	if got := b.ReadLong(SysRegBase + RegFaultVA); got != 0xCAFE0000 {
		t.Errorf("faultva = %08X", got)
	}
	if got := b.ReadLong(SysRegBase+RegMMUCR) >> 8 & 0xF; got != uint32(faults.ReadOnlyViolation) {
		t.Errorf("fault field = %d", got)
	}
}

func TestBus_TLBControl(t *testing.T) {
	mmu := &MMU{ASID: 1}
	b := NewBus(mmu)

	mmu.TLB.Install(TLBEntry{VPN: 0x10, ASID: 1, PPN: 1})
	mmu.TLB.Install(TLBEntry{VPN: 0x20, ASID: 2, PPN: 2})
	mmu.TLB.Install(TLBEntry{VPN: 0x30, ASID: 1, PPN: 3})

	// invalidate one page of the current address space
	b.WriteLong(SysRegBase+RegTLBInval, 0x10<<PageShift)
	if _, ok := mmu.TLB.Lookup(0x10, 1); ok {
		t.Error("tlbinval left the entry")
	}

	// flush another address space by ASID
	b.WriteLong(SysRegBase+RegASIDInval, 2)
	if _, ok := mmu.TLB.Lookup(0x20, 2); ok {
		t.Error("asidinval left the entry")
	}
	if _, ok := mmu.TLB.Lookup(0x30, 1); !ok {
		t.Error("asidinval crossed address spaces")
	}

	// full flush and counter clearing
	mmu.TLB.Hits = 5
	b.WriteLong(SysRegBase+RegTLBFlush, 1)
	b.WriteLong(SysRegBase+RegTLBHits, 0)
	if _, ok := mmu.TLB.Lookup(0x30, 1); ok {
		t.Error("tlbflush left an entry")
	}
	if got := b.ReadLong(SysRegBase + RegTLBHits); got != 0 {
		t.Errorf("hit counter = %d after clear", got)
	}
}
