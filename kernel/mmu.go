package kernel

// Descriptor records for the IDT, GDT and TSS.
// a go version of the pieces of inc/mmu.h the trap code touches.

// Gatedesc is one interrupt or trap gate in the IDT.
type Gatedesc struct {
	Off    uint32 // entry point offset in kernel text
	Sel    uint16 // code segment selector
	Istrap bool   // trap gate (leaves trap delivery enabled) vs interrupt gate
	Dpl    int    // privilege level required to invoke with an explicit int
	P      bool   // present
}

// Setgate fills one IDT gate. istrap selects a trap gate, which would
// re-enable trap delivery during dispatch; the kernel runs on a single
// stack, so every caller passes false.
func Setgate(g *Gatedesc, istrap bool, sel uint16, off uint32, dpl int) {
	g.Off = off
	g.Sel = sel
	g.Istrap = istrap
	g.Dpl = dpl
	g.P = true
}

// Pseudodesc is the operand of the lidt instruction: the table limit
// and the table itself.
type Pseudodesc struct {
	Lim  uint16
	Base *[256]Gatedesc
}

// Taskstate carries the ring-0 stack the processor switches to on a
// privilege-elevating trap. Hardware task switching is otherwise
// unused; the remaining fields of the real structure are omitted.
type Taskstate struct {
	Esp0 uint32 // stack pointer to load on a trap from user mode
	Ss0  uint16 // segment selector for Esp0
}

// Segdesc is one GDT entry. Only the TSS slot is ever written here;
// the code and data segments are laid down by the boot loader.
type Segdesc struct {
	Base uintptr
	Lim  uint32
	Type uint8 // STS_* system segment type
	S    bool  // false = system segment
	Dpl  int
	P    bool
}

// System segment type for an available 32-bit TSS.
const STS_T32A = 0x9

// Number of GDT slots (null, KT, KD, UT, UD, TSS).
const NSEGS = 6
