package core

// PTE is a 64-bit page table entry. Bit 63 is no-execute, bits 62..12
// hold the physical page number, the low bits carry the status flags.
type PTE uint64

// PageShift is the in-page offset width; pages are 4 KiB.
const PageShift = 12

func (p PTE) Present() bool {
	return p&1 != 0
}

func (p PTE) Writable() bool {
	return p&(1<<1) != 0
}

func (p PTE) User() bool {
	return p&(1<<2) != 0
}

func (p PTE) WriteThrough() bool {
	return p&(1<<3) != 0
}

func (p PTE) CacheDisable() bool {
	return p&(1<<4) != 0
}

func (p PTE) Accessed() bool {
	return p&(1<<9) != 0
}

func (p PTE) Dirty() bool {
	return p&(1<<10) != 0
}

func (p PTE) Global() bool {
	return p&(1<<11) != 0
}

func (p PTE) NoExec() bool {
	return p&(1<<63) != 0
}

// PPN extracts the physical page number.
func (p PTE) PPN() uint64 {
	return uint64(p) >> PageShift & 0x7FFFFFFFFFFFF
}
