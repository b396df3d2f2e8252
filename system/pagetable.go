package system

import (
	"m65832/core"
)

// Helpers to build two-level page tables in RAM, so an operating
// system image (or a test) can turn translation on without carrying
// its own table builder.
//
// layout: level-1 table at the page-table base, one 4 KiB level-2
// table per 4 MiB region, allocated bump-style behind the level-1
// table. Abbreviations used below:
// PTBR - page table base register
// PTE  - page table entry
// VPN/PPN - virtual/physical page number

// PTE permission bits as accepted by MapPage.
const (
	MapWritable = 1 << 1
	MapUser     = 1 << 2
	MapGlobal   = 1 << 11
)

// PageTable builds tables into a Bus and tracks the allocation point
// for level-2 pages.
type PageTable struct {
	bus  *core.Bus
	base uint64
	next uint64
}

// NewPageTable roots an empty table at base. The level-1 page itself
// is the first allocation; level-2 pages follow it.
func NewPageTable(bus *core.Bus, base uint64) *PageTable {
	return &PageTable{bus: bus, base: base, next: base + 0x1000}
}

// Base is the value to program into the PTBR registers.
func (pt *PageTable) Base() uint64 {
	return pt.base
}

// MapPage maps one virtual page to one physical page with the given
// permission bits, allocating the level-2 table on first touch of its
// 4 MiB region.
func (pt *PageTable) MapPage(va uint32, pa uint64, perm uint64) {
	l1 := pt.base + uint64(va>>22)*8
	l1e := pt.bus.ReadPTE(l1)
	if !l1e.Present() {
		l2page := pt.next
		pt.next += 0x1000
		l1e = core.PTE(l2page&^0xFFF) | MapWritable | MapUser | 1
		pt.bus.WritePTE(l1, l1e)
	}
	l2 := l1e.PPN()<<core.PageShift + uint64(va>>12&0x3FF)*8
	pt.bus.WritePTE(l2, core.PTE(pa&^0xFFF)|core.PTE(perm)|1)
}

// MapNoExec marks a mapping no-execute.
func (pt *PageTable) MapNoExec(va uint32, pa uint64, perm uint64) {
	pt.MapPage(va, pa, perm|1<<63)
}

// IdentityMap maps n pages starting at va to the same physical
// addresses.
func (pt *PageTable) IdentityMap(va uint32, n int, perm uint64) {
	for i := 0; i < n; i++ {
		off := uint32(i) << core.PageShift
		pt.MapPage(va+off, uint64(va+off), perm)
	}
}

// Activate programs the PTBR and enables translation through the
// memory-mapped control registers, flushing stale entries first.
func (pt *PageTable) Activate() {
	pt.bus.WriteLong(core.SysRegBase+core.RegTLBFlush, 1)
	pt.bus.WriteLong(core.SysRegBase+core.RegPTBRLo, uint32(pt.base))
	pt.bus.WriteLong(core.SysRegBase+core.RegPTBRHi, uint32(pt.base>>32))
	pt.bus.WriteLong(core.SysRegBase+core.RegMMUCR, core.MMUCREnable)
}
