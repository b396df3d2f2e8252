package psw

import (
	"testing"
)

func TestGet(t *testing.T) {
	var p PSW
	p = 1

	if p.Get() != 1 {
		t.Errorf("Expected PSW value of 1, got %v", p.Get())
	}
}

func TestPSW_C(t *testing.T) {
	tests := []struct {
		name string
		p    PSW
		want bool
	}{
		{"C set, all 0", 1, true},
		{"C set, other flags too", 3, true},
		{"C clear, all 0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			if p.C() != tt.want {
				t.Errorf("psw.C() (%v) failed. P: %v, wanted %v, got %v",
					tt.name, p, tt.want, p.C())
			}
		})
	}
}

func TestPSW_SetC(t *testing.T) {
	tests := []struct {
		name string
		psw  PSW
		args bool
	}{
		{"set C P=0", 0, true},
		{"set C P=1", 1, true},
		{"clear C P=0", 0, false},
		{"clear C P=1", 1, false},
		{"clear C P=3", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &(tt.psw)
			p.SetC(tt.args)
			if p.C() != tt.args {
				t.Errorf("psw.SetC() (%s) failed. P: %v, expected: %v, got %v",
					tt.name, tt.psw, tt.args, p.C())
			}
		})
	}
}

func TestPSW_AccumWidth(t *testing.T) {
	tests := []struct {
		name string
		psw  PSW
		want Width
	}{
		{"native, M=00", 0, W8},
		{"native, M=01", 1 << 6, W16},
		{"native, M=10", 2 << 6, W32},
		{"emulation forces 8 bit", (2 << 6) | (1 << 10), W8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &tt.psw
			if got := p.AccumWidth(); got != tt.want {
				t.Errorf("psw.AccumWidth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPSW_IndexWidth(t *testing.T) {
	tests := []struct {
		name string
		psw  PSW
		want Width
	}{
		{"native, X=00", 0, W8},
		{"native, X=01", 1 << 4, W16},
		{"native, X=10", 2 << 4, W32},
		{"emulation forces 8 bit", (2 << 4) | (1 << 10), W8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &tt.psw
			if got := p.IndexWidth(); got != tt.want {
				t.Errorf("psw.IndexWidth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPSW_Mode(t *testing.T) {
	var p PSW
	p.SetS(true)
	p.SetAccumWidth(W16)
	p.SetIndexWidth(W16)

	m := p.Mode()
	if !m.Supervisor || m.Emulation || m.Compat {
		t.Errorf("unexpected mode flags: %+v", m)
	}
	if m.AccumWidth != W16 || m.IndexWidth != W16 {
		t.Errorf("unexpected widths: %+v", m)
	}

	// 32 bit accumulator implies compatibility leniency
	p.SetAccumWidth(W32)
	if !p.Mode().Compat {
		t.Error("expected Compat with 32-bit accumulator width")
	}

	// so does the K flag on its own
	p.SetAccumWidth(W8)
	p.SetK(true)
	if !p.Mode().Compat {
		t.Error("expected Compat with K flag set")
	}
}

func TestWidth_Bytes(t *testing.T) {
	if W8.Bytes() != 1 || W16.Bytes() != 2 || W32.Bytes() != 4 {
		t.Errorf("Width.Bytes() mismatch: %d %d %d",
			W8.Bytes(), W16.Bytes(), W32.Bytes())
	}
}
