package kernel

import (
	"testing"
)

func TestMachineRegisters(t *testing.T) {
	m := NewMachine()

	m.SetCr2(0xdeadbee0)
	if m.Rcr2() != 0xdeadbee0 {
		t.Fatalf("cr2 = %#x", m.Rcr2())
	}

	m.RaiseSingleStep()
	if m.Rdr6()&DR6_BS == 0 {
		t.Fatal("BS not raised")
	}
	m.Ldr6(m.Rdr6() &^ DR6_BS)
	if m.Rdr6() != 0 {
		t.Fatalf("dr6 = %#x after clear", m.Rdr6())
	}

	m.Ltr(GD_TSS)
	if m.TR() != GD_TSS {
		t.Fatalf("tr = %#x", m.TR())
	}
}

func TestMachineMsrCombinesHalves(t *testing.T) {
	m := NewMachine()
	m.Wrmsr(SYSENTER_CS_MSR, 0x8, 0x1)
	if got := m.Msr(SYSENTER_CS_MSR); got != 0x100000008 {
		t.Fatalf("msr = %#x", got)
	}
	if got := m.Msr(SYSENTER_EIP_MSR); got != 0 {
		t.Fatalf("unwritten msr = %#x", got)
	}
}

func TestVectorTableFixedStride(t *testing.T) {
	if vectors[0] != vectorBase {
		t.Fatalf("vectors[0] = %#x", vectors[0])
	}
	for i := 1; i < len(vectors); i++ {
		if vectors[i]-vectors[i-1] != vectorStride {
			t.Fatalf("stub %d not %d bytes after stub %d", i, vectorStride, i-1)
		}
	}
	if uint32(sysenterEntry) <= vectors[255] {
		t.Fatal("fast entry stub overlaps the vector stubs")
	}
}
