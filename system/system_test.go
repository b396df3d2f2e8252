package system

import (
	"testing"

	"m65832/console"
	"m65832/core"
	"m65832/faults"
	"m65832/logger"
	"m65832/psw"
)

func newTestSystem() *System {
	return InitializeSystem(console.NewSimple(), nil, nil, false, logger.New("/dev/null"))
}

func TestBootReachesNativeMode(t *testing.T) {
	sys := newTestSystem()
	sys.Boot()

	if sys.State != StateHalt {
		t.Fatalf("state = %d, want halt after STP", sys.State)
	}
	if sys.Front.PSW.E() {
		t.Error("still in emulation mode after CLC/XCE")
	}
	if !sys.Front.PSW.C() {
		t.Error("XCE should have moved the old emulation bit into carry")
	}
	if got := sys.Front.PSW.AccumWidth(); got != psw.W16 {
		t.Errorf("accumulator width = %v, want W16", got)
	}
	if got := sys.Front.PSW.IndexWidth(); got != psw.W16 {
		t.Errorf("index width = %v, want W16", got)
	}
}

func TestLoadImageRunsAtAddress(t *testing.T) {
	sys := newTestSystem()
	sys.LoadImage([]byte{0xEA, 0xDB}, 0x4000) // NOP, STP
	if sys.Front.PC != 0x4000 {
		t.Fatalf("pc = %08X after load, want 00004000", sys.Front.PC)
	}
	sys.Run()
	if sys.State != StateHalt || sys.Front.PC != 0x4002 {
		t.Errorf("state=%d pc=%08X, want halted past the image", sys.State, sys.Front.PC)
	}
}

func TestBaseRegisterSetters(t *testing.T) {
	sys := newTestSystem()
	// native mode program: SD #$00010000, SB #$00020000, SV #$00000100, STP
	sys.LoadImage([]byte{
		0x18, 0xFB, // CLC, XCE
		0x02, 0x20, 0x00, 0x00, 0x01, 0x00, // SD #$00010000
		0x02, 0x22, 0x00, 0x00, 0x02, 0x00, // SB #$00020000
		0x02, 0x24, 0x00, 0x01, 0x00, 0x00, // SV #$00000100
		0xDB, // STP
	}, 0x2000)
	sys.Run()

	r := sys.Front.Regs
	if r.D() != 0x00010000 {
		t.Errorf("D = %08X", r.D())
	}
	if r.B() != 0x00020000 {
		t.Errorf("B = %08X", r.B())
	}
	if r.VBR() != 0x00000100 {
		t.Errorf("VBR = %08X", r.VBR())
	}
}

func TestFaultVectorsToHandler(t *testing.T) {
	sys := newTestSystem()

	// handler: just STP
	sys.Bus.LoadImage([]byte{0xDB}, 0x5000)
	sys.Bus.WriteLong(faults.VecPageFault, 0x5000)

	// program: leave emulation, then jump toward an unmapped page
	sys.LoadImage([]byte{0x18, 0xFB, 0x4C, 0x00, 0x70}, 0x2000) // CLC, XCE, JMP $7000
	sys.step()                                                  // CLC
	sys.step()                                                  // XCE
	sys.step()                                                  // JMP
	if sys.Front.PC != 0x7000 {
		t.Fatalf("pc = %08X before the faulting fetch", sys.Front.PC)
	}

	// enable the MMU with only the handler page mapped: the fetch at
	// $7000 misses its level-2 entry
	pt := NewPageTable(sys.Bus, 0x8000)
	pt.IdentityMap(0x5000, 1, MapWritable|MapUser)
	pt.Activate()

	sys.step()
	if sys.Front.PC != 0x5000 {
		t.Fatalf("pc = %08X, want the fault handler", sys.Front.PC)
	}
	if sys.MMU.FaultKind != faults.L2NotPresent {
		t.Errorf("latched fault = %v", sys.MMU.FaultKind)
	}
	if got := sys.Bus.ReadLong(core.SysRegBase + core.RegFaultVA); got != 0x7000 {
		t.Errorf("faultva = %08X, want 00007000", got)
	}
}

func TestPageTableMapping(t *testing.T) {
	sys := newTestSystem()
	pt := NewPageTable(sys.Bus, 0x8000)
	pt.MapPage(0x00400000, 0x9000, MapWritable|MapUser)
	pt.Activate()

	pa, f, err := sys.MMU.Translate(0x00400123, faults.Read, true, sys.Bus)
	if err != nil || f != nil {
		t.Fatalf("translate: %v %v", err, f)
	}
	if pa != 0x9123 {
		t.Errorf("pa = %X, want 9123", pa)
	}

	// unmapped neighbour page faults
	_, f, _ = sys.MMU.Translate(0x00401000, faults.Read, true, sys.Bus)
	if f == nil || f.Kind != faults.L2NotPresent {
		t.Errorf("fault = %v, want L2NotPresent", f)
	}
}

func TestWaiThenInterrupt(t *testing.T) {
	sys := newTestSystem()
	sys.LoadImage([]byte{0xCB, 0xEA, 0xDB}, 0x2000) // WAI, NOP, STP
	sys.Run()
	if sys.State != StateWait {
		t.Fatalf("state = %d, want wait", sys.State)
	}

	sys.Interrupt()
	sys.Front.IRQPending = false // dispatcher would clear it on entry
	sys.Run()
	if sys.State != StateHalt {
		t.Errorf("state = %d, want halt after resuming", sys.State)
	}
}
