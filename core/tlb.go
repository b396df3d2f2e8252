package core

// TLBEntries is the number of fully associative translation entries.
const TLBEntries = 16

// TLBEntry caches one page translation together with the permission
// bits needed to re-check an access without walking the tables.
type TLBEntry struct {
	Valid    bool
	VPN      uint32
	ASID     uint8
	PPN      uint64
	Writable bool
	User     bool
	Global   bool
	NoExec   bool
	Accessed bool
	Dirty    bool
}

// TLB is a small fully associative translation cache with round-robin
// replacement.
type TLB struct {
	entries [TLBEntries]TLBEntry
	cursor  int

	Hits   uint64
	Misses uint64
}

// Lookup finds a valid entry for the page. Global entries match any
// address space; the rest require an ASID match.
func (t *TLB) Lookup(vpn uint32, asid uint8) (TLBEntry, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && e.VPN == vpn && (e.Global || e.ASID == asid) {
			return *e, true
		}
	}
	return TLBEntry{}, false
}

// Install writes the entry at the round-robin cursor.
func (t *TLB) Install(e TLBEntry) {
	e.Valid = true
	t.entries[t.cursor] = e
	t.cursor = (t.cursor + 1) % TLBEntries
}

// FlushAll invalidates every entry.
func (t *TLB) FlushAll() {
	for i := range t.entries {
		t.entries[i].Valid = false
	}
}

// FlushASID invalidates the non-global entries of one address space.
func (t *TLB) FlushASID(asid uint8) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && !e.Global && e.ASID == asid {
			e.Valid = false
		}
	}
}

// FlushVA invalidates entries mapping the page containing va, in the
// given address space or globally mapped.
func (t *TLB) FlushVA(va uint32, asid uint8) {
	vpn := va >> PageShift
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && e.VPN == vpn && (e.Global || e.ASID == asid) {
			e.Valid = false
		}
	}
}
