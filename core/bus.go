package core

// Physical memory layout. The MMU control block sits in a reserved
// page at the top of the 32-bit physical space.
const (
	MemSize    = 1 << 24
	SysRegBase = 0xFFFFF000
	SysRegSize = 0x1000
)

// MMU control register offsets within the system page.
const (
	RegMMUCR     = 0x00 // enable/write-protect/NX plus last fault kind
	RegTLBInval  = 0x04 // write a VA to invalidate its page
	RegASID      = 0x08
	RegASIDInval = 0x0C // write an ASID to flush its non-global entries
	RegFaultVA   = 0x10 // read-only, VA of the last translation fault
	RegPTBRLo    = 0x14
	RegPTBRHi    = 0x18
	RegTLBFlush  = 0x1C // any write invalidates the whole TLB
	RegTLBHits   = 0x20
	RegTLBMiss   = 0x24
)

// MMUCR bit assignments.
const (
	MMUCREnable       = 1 << 0
	MMUCRWriteProtect = 1 << 1
	MMUCRNXEnable     = 1 << 2
	mmucrFaultShift   = 8
)

// Bus is the physical memory system: RAM, the MMU register page, and
// the page-table read port the walker uses.
type Bus struct {
	mem []byte
	mmu *MMU
}

func NewBus(mmu *MMU) *Bus {
	return &Bus{
		mem: make([]byte, MemSize),
		mmu: mmu,
	}
}

// LoadImage copies a memory image into RAM at the given physical
// address.
func (b *Bus) LoadImage(data []byte, at uint32) {
	copy(b.mem[at:], data)
}

func sysReg(pa uint64) (uint64, bool) {
	if pa >= SysRegBase && pa < SysRegBase+SysRegSize {
		return pa - SysRegBase, true
	}
	return 0, false
}

func (b *Bus) ReadByte(pa uint64) byte {
	if off, ok := sysReg(pa); ok {
		word := b.readSysReg(off &^ 3)
		return byte(word >> (8 * (off & 3)))
	}
	if pa < MemSize {
		return b.mem[pa]
	}
	return 0xFF
}

func (b *Bus) WriteByte(pa uint64, v byte) {
	if off, ok := sysReg(pa); ok {
		// register writes are word-wide; a byte write replaces the
		// whole register low bits
		b.writeSysReg(off&^3, uint32(v))
		return
	}
	if pa < MemSize {
		b.mem[pa] = v
	}
}

func (b *Bus) ReadWord(pa uint64) uint16 {
	if off, ok := sysReg(pa); ok {
		return uint16(b.readSysReg(off &^ 3))
	}
	return uint16(b.ReadByte(pa)) | uint16(b.ReadByte(pa+1))<<8
}

func (b *Bus) WriteWord(pa uint64, v uint16) {
	if off, ok := sysReg(pa); ok {
		b.writeSysReg(off&^3, uint32(v))
		return
	}
	b.WriteByte(pa, byte(v))
	b.WriteByte(pa+1, byte(v>>8))
}

func (b *Bus) ReadLong(pa uint64) uint32 {
	if off, ok := sysReg(pa); ok {
		return b.readSysReg(off &^ 3)
	}
	return uint32(b.ReadWord(pa)) | uint32(b.ReadWord(pa+2))<<16
}

func (b *Bus) WriteLong(pa uint64, v uint32) {
	if off, ok := sysReg(pa); ok {
		b.writeSysReg(off&^3, v)
		return
	}
	b.WriteWord(pa, uint16(v))
	b.WriteWord(pa+2, uint16(v>>16))
}

// ReadPTE reads a 64-bit page table entry, little-endian. It is the
// walker's memory port.
func (b *Bus) ReadPTE(addr uint64) PTE {
	return PTE(uint64(b.ReadLong(addr)) | uint64(b.ReadLong(addr+4))<<32)
}

// WritePTE stores a page table entry; used by loaders and tests that
// build page tables in RAM.
func (b *Bus) WritePTE(addr uint64, p PTE) {
	b.WriteLong(addr, uint32(p))
	b.WriteLong(addr+4, uint32(uint64(p)>>32))
}

func (b *Bus) readSysReg(off uint64) uint32 {
	switch off {
	case RegMMUCR:
		var v uint32
		if b.mmu.Enabled {
			v |= MMUCREnable
		}
		if b.mmu.WriteProtect {
			v |= MMUCRWriteProtect
		}
		if b.mmu.NXEnable {
			v |= MMUCRNXEnable
		}
		v |= uint32(b.mmu.FaultKind) << mmucrFaultShift
		return v
	case RegASID:
		return uint32(b.mmu.ASID)
	case RegFaultVA:
		return b.mmu.FaultVA
	case RegPTBRLo:
		return uint32(b.mmu.PTBR)
	case RegPTBRHi:
		return uint32(b.mmu.PTBR >> 32)
	case RegTLBHits:
		return uint32(b.mmu.TLB.Hits)
	case RegTLBMiss:
		return uint32(b.mmu.TLB.Misses)
	}
	return 0
}

func (b *Bus) writeSysReg(off uint64, v uint32) {
	switch off {
	case RegMMUCR:
		b.mmu.Enabled = v&MMUCREnable != 0
		b.mmu.WriteProtect = v&MMUCRWriteProtect != 0
		b.mmu.NXEnable = v&MMUCRNXEnable != 0
	case RegTLBInval:
		b.mmu.TLB.FlushVA(v, b.mmu.ASID)
	case RegASID:
		b.mmu.ASID = uint8(v)
	case RegASIDInval:
		b.mmu.TLB.FlushASID(uint8(v))
	case RegPTBRLo:
		b.mmu.PTBR = b.mmu.PTBR&^0xFFFFFFFF | uint64(v)
	case RegPTBRHi:
		b.mmu.PTBR = b.mmu.PTBR&0xFFFFFFFF | uint64(v)<<32
	case RegTLBFlush:
		b.mmu.TLB.FlushAll()
	case RegTLBHits:
		b.mmu.TLB.Hits = 0
	case RegTLBMiss:
		b.mmu.TLB.Misses = 0
	}
}
