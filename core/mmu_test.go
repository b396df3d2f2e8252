package core

import (
	"testing"

	"m65832/faults"
)

// tableMem is a page-table backing store for walker tests.
type tableMem map[uint64]PTE

func (t tableMem) ReadPTE(addr uint64) PTE {
	return t[addr]
}

func pte(ppn uint64, flags PTE) PTE {
	return PTE(ppn<<PageShift) | flags | 1
}

const (
	pteWritable = PTE(1 << 1)
	pteUser     = PTE(1 << 2)
	pteAccessed = PTE(1 << 9)
	pteDirty    = PTE(1 << 10)
	pteGlobal   = PTE(1 << 11)
	pteNoExec   = PTE(1) << 63
)

// tables maps va 0x00400000 via an L1 at ptbr entry 1 pointing to an
// L2 page at ppn 0x100, whose entry 0 maps to ppn 0x2AB.
func walkerFixture() (*MMU, tableMem) {
	m := &MMU{Enabled: true, PTBR: 0x8000}
	mem := tableMem{
		0x8000 + 1*8:      pte(0x100, pteWritable|pteUser),
		0x100<<PageShift:  pte(0x2AB, pteWritable|pteUser),
	}
	return m, mem
}

func TestMMU_Disabled(t *testing.T) {
	m := &MMU{}
	pa, f, err := m.Translate(0xFFFF1234, faults.Write, false, tableMem{})
	if err != nil || f != nil {
		t.Fatalf("identity map failed: %v %v", err, f)
	}
	if pa != 0xFFFF1234 {
		t.Errorf("pa = %X, want identity", pa)
	}
}

func TestMMU_WalkAndHit(t *testing.T) {
	m, mem := walkerFixture()
	const va = 0x00400123

	pa, f, err := m.Translate(va, faults.Read, false, mem)
	if err != nil || f != nil {
		t.Fatalf("walk failed: %v %v", err, f)
	}
	if want := uint64(0x2AB)<<PageShift | 0x123; pa != want {
		t.Errorf("pa = %X, want %X", pa, want)
	}
	if m.TLB.Misses != 1 || m.TLB.Hits != 0 {
		t.Errorf("counters after walk: hits=%d misses=%d", m.TLB.Hits, m.TLB.Misses)
	}

	// the second access to the same page must come from the TLB
	pa2, f, err := m.Translate(va+8, faults.Read, false, mem)
	if err != nil || f != nil {
		t.Fatalf("hit failed: %v %v", err, f)
	}
	if pa2 != pa+8 {
		t.Errorf("hit pa = %X, want %X", pa2, pa+8)
	}
	if m.TLB.Hits != 1 || m.TLB.Misses != 1 {
		t.Errorf("counters after hit: hits=%d misses=%d", m.TLB.Hits, m.TLB.Misses)
	}
}

func TestMMU_StatusBitsCached(t *testing.T) {
	m, mem := walkerFixture()
	mem[0x100<<PageShift] = pte(0x2AB, pteWritable|pteUser|pteAccessed|pteDirty)

	if _, f, err := m.Translate(0x00400000, faults.Read, false, mem); err != nil || f != nil {
		t.Fatalf("walk failed: %v %v", err, f)
	}
	e, ok := m.TLB.Lookup(0x00400000>>PageShift, m.ASID)
	if !ok {
		t.Fatal("translation not cached")
	}
	if !e.Accessed || !e.Dirty {
		t.Errorf("status bits lost: accessed=%v dirty=%v", e.Accessed, e.Dirty)
	}
}

func TestMMU_NotPresentFaults(t *testing.T) {
	m, mem := walkerFixture()

	// no L1 entry for this region
	_, f, err := m.Translate(0x00800000, faults.Read, false, mem)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil || f.Kind != faults.L1NotPresent {
		t.Fatalf("fault = %v, want L1NotPresent", f)
	}

	// L1 present, L2 missing
	_, f, err = m.Translate(0x00401000, faults.Read, false, mem)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil || f.Kind != faults.L2NotPresent {
		t.Fatalf("fault = %v, want L2NotPresent", f)
	}
	if m.FaultVA != 0x00401000 {
		t.Errorf("fault va = %08X", m.FaultVA)
	}

	// faulting translations are never cached
	if _, ok := m.TLB.Lookup(0x00800000>>PageShift, 0); ok {
		t.Error("L1 fault installed a TLB entry")
	}
	if _, ok := m.TLB.Lookup(0x00401000>>PageShift, 0); ok {
		t.Error("L2 fault installed a TLB entry")
	}
}

func TestMMU_PermissionOrder(t *testing.T) {
	tests := []struct {
		name       string
		flags      PTE
		access     faults.Access
		supervisor bool
		wp         bool
		nx         bool
		want       faults.Kind
		ok         bool
	}{
		{"user read of supervisor page", pteWritable, faults.Read, false, false, false, faults.PrivilegeViolation, false},
		{"user write of read-only page", pteUser, faults.Write, false, false, false, faults.ReadOnlyViolation, false},
		{"supervisor write ignores read-only without WP", pteUser, faults.Write, true, false, false, 0, true},
		{"supervisor write honors WP", pteUser, faults.Write, true, true, false, faults.ReadOnlyViolation, false},
		{"execute of NX page", pteUser | pteNoExec, faults.Execute, false, false, true, faults.ExecuteViolation, false},
		{"NX ignored when not enforced", pteUser | pteNoExec, faults.Execute, false, false, false, 0, true},
		{"privilege outranks read-only", 0, faults.Write, false, false, false, faults.PrivilegeViolation, false},
		{"read-only outranks NX", pteUser | pteNoExec, faults.Write, false, false, true, faults.ReadOnlyViolation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MMU{Enabled: true, PTBR: 0x8000, WriteProtect: tt.wp, NXEnable: tt.nx}
			mem := tableMem{
				0x8000:          pte(0x100, pteWritable|pteUser),
				0x100 << PageShift: pte(0x2AB, tt.flags),
			}
			_, f, err := m.Translate(0x123, tt.access, tt.supervisor, mem)
			if err != nil {
				t.Fatal(err)
			}
			if tt.ok {
				if f != nil {
					t.Fatalf("unexpected fault %v", f)
				}
				return
			}
			if f == nil || f.Kind != tt.want {
				t.Fatalf("fault = %v, want %v", f, tt.want)
			}
			if _, cached := m.TLB.Lookup(0, m.ASID); cached {
				t.Error("denied translation was cached")
			}
		})
	}
}

func TestMMU_WriteFaultLeavesTLBUsable(t *testing.T) {
	// a read installs the entry; a later denied write must neither
	// evict it nor stop further reads from hitting
	m, mem := walkerFixture()
	mem[0x100<<PageShift] = pte(0x2AB, pteUser) // present, read-only, user

	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("read faulted: %v", f)
	}
	_, f, _ := m.Translate(0x00400000, faults.Write, false, mem)
	if f == nil || f.Kind != faults.ReadOnlyViolation {
		t.Fatalf("fault = %v, want ReadOnlyViolation", f)
	}

	hits := m.TLB.Hits
	if _, f, _ := m.Translate(0x00400010, faults.Read, false, mem); f != nil {
		t.Fatalf("read after denied write faulted: %v", f)
	}
	if m.TLB.Hits != hits+1 {
		t.Error("entry no longer hits after the denied write")
	}
}

func TestMMU_ASIDMatching(t *testing.T) {
	m, mem := walkerFixture()
	m.ASID = 1
	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("walk faulted: %v", f)
	}

	// same page, different address space: the entry must not match
	m.ASID = 2
	misses := m.TLB.Misses
	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("walk faulted: %v", f)
	}
	if m.TLB.Misses != misses+1 {
		t.Error("entry from another address space hit")
	}
}

func TestMMU_GlobalEntries(t *testing.T) {
	m, mem := walkerFixture()
	mem[0x100<<PageShift] = pte(0x2AB, pteWritable|pteUser|pteGlobal)

	m.ASID = 1
	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("walk faulted: %v", f)
	}

	m.ASID = 7
	hits := m.TLB.Hits
	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("global hit faulted: %v", f)
	}
	if m.TLB.Hits != hits+1 {
		t.Error("global entry did not hit across address spaces")
	}

	// flush_asid must spare global entries
	m.TLB.FlushASID(1)
	if _, ok := m.TLB.Lookup(0x00400000>>PageShift, 7); !ok {
		t.Error("flush_asid removed a global entry")
	}

	// flush_va removes them
	m.TLB.FlushVA(0x00400000, 3)
	if _, ok := m.TLB.Lookup(0x00400000>>PageShift, 7); ok {
		t.Error("flush_va spared a global entry")
	}
}

func TestTLB_Flushes(t *testing.T) {
	var tlb TLB
	tlb.Install(TLBEntry{VPN: 1, ASID: 1, PPN: 0x10})
	tlb.Install(TLBEntry{VPN: 2, ASID: 1, PPN: 0x11})
	tlb.Install(TLBEntry{VPN: 3, ASID: 2, PPN: 0x12})

	tlb.FlushVA(2<<PageShift, 1)
	if _, ok := tlb.Lookup(2, 1); ok {
		t.Error("flush_va left the entry")
	}
	if _, ok := tlb.Lookup(1, 1); !ok {
		t.Error("flush_va removed an unrelated entry")
	}

	tlb.FlushASID(1)
	if _, ok := tlb.Lookup(1, 1); ok {
		t.Error("flush_asid left an entry")
	}
	if _, ok := tlb.Lookup(3, 2); !ok {
		t.Error("flush_asid crossed address spaces")
	}

	tlb.FlushAll()
	if _, ok := tlb.Lookup(3, 2); ok {
		t.Error("flush_all left an entry")
	}
}

func TestTLB_RoundRobinReplacement(t *testing.T) {
	var tlb TLB
	for i := 0; i < TLBEntries+1; i++ {
		tlb.Install(TLBEntry{VPN: uint32(i), ASID: 1, PPN: uint64(i)})
	}
	// the first entry was overwritten by the wrap-around install
	if _, ok := tlb.Lookup(0, 1); ok {
		t.Error("oldest entry survived a full wrap")
	}
	if _, ok := tlb.Lookup(1, 1); !ok {
		t.Error("second entry should survive")
	}
	if e, ok := tlb.Lookup(uint32(TLBEntries), 1); !ok || e.PPN != uint64(TLBEntries) {
		t.Error("newest entry missing")
	}
}

func TestMMU_WalkerStateMachine(t *testing.T) {
	m, mem := walkerFixture()

	if _, _, done, err := m.Request(0x00400123, faults.Read, false); err != nil || done {
		t.Fatalf("request: done=%v err=%v", done, err)
	}
	if m.State() != WalkL1Requested {
		t.Fatalf("state = %v, want l1-requested", m.State())
	}

	// a second request while busy is a contract violation
	if _, _, _, err := m.Request(0x1000, faults.Read, false); err == nil {
		t.Fatal("overlapping request accepted")
	}

	addr, ok := m.PendingRequest()
	if !ok || addr != 0x8000+8 {
		t.Fatalf("l1 request addr = %X ok=%v, want %X", addr, ok, 0x8000+8)
	}
	if m.State() != WalkL1Pending {
		t.Fatalf("state = %v, want l1-pending", m.State())
	}
	if _, ok := m.PendingRequest(); ok {
		t.Fatal("request re-issued while pending")
	}

	m.Acknowledge(mem.ReadPTE(addr))
	if m.State() != WalkL2Requested {
		t.Fatalf("state = %v, want l2-requested", m.State())
	}

	addr, ok = m.PendingRequest()
	if !ok || addr != 0x100<<PageShift {
		t.Fatalf("l2 request addr = %X ok=%v", addr, ok)
	}
	m.Acknowledge(mem.ReadPTE(addr))
	if m.State() != WalkDone {
		t.Fatalf("state = %v, want done", m.State())
	}

	pa, f, done := m.Result()
	if !done || f != nil {
		t.Fatalf("result: done=%v fault=%v", done, f)
	}
	if want := uint64(0x2AB)<<PageShift | 0x123; pa != want {
		t.Errorf("pa = %X, want %X", pa, want)
	}
	if m.State() != WalkIdle {
		t.Errorf("state = %v, want idle after result", m.State())
	}
}

func TestMMU_ResetAbortsWalk(t *testing.T) {
	m, mem := walkerFixture()
	if _, f, _ := m.Translate(0x00400000, faults.Read, false, mem); f != nil {
		t.Fatalf("prime walk faulted: %v", f)
	}

	if _, _, done, err := m.Request(0x00800000, faults.Read, false); err != nil || done {
		t.Fatalf("request: done=%v err=%v", done, err)
	}
	m.Reset()

	if m.State() != WalkIdle {
		t.Errorf("state = %v, want idle after reset", m.State())
	}
	if _, ok := m.TLB.Lookup(0x00400000>>PageShift, 0); ok {
		t.Error("reset left a TLB entry")
	}
	// and the walker accepts new work
	if _, _, _, err := m.Request(0x00400000, faults.Read, false); err != nil {
		t.Errorf("request after reset: %v", err)
	}
}
