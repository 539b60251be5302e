package kernel

// Trap numbers and privileged-state constants.
// a go version of inc/trap.h and the bits of inc/x86.h the trap code uses.

// Processor-defined exception vectors.
const (
	T_DIVIDE = 0  // divide error
	T_DEBUG  = 1  // debug exception
	T_NMI    = 2  // non-maskable interrupt
	T_BRKPT  = 3  // breakpoint
	T_OFLOW  = 4  // overflow
	T_BOUND  = 5  // bounds check
	T_ILLOP  = 6  // illegal opcode
	T_DEVICE = 7  // device not available
	T_DBLFLT = 8  // double fault
	T_TSS    = 10 // invalid task switch segment
	T_SEGNP  = 11 // segment not present
	T_STACK  = 12 // stack exception
	T_GPFLT  = 13 // general protection fault
	T_PGFLT  = 14 // page fault
	T_FPERR  = 16 // floating point error
	T_ALIGN  = 17 // alignment check
	T_MCHK   = 18 // machine check
	T_SIMDERR = 19 // SIMD floating point error
)

// System call vector.
const T_SYSCALL = 48

// Global descriptor numbers. GD_KT is what tf_cs holds for a trap
// raised in kernel mode; user-mode selectors carry RPL 3 in the low bits.
const (
	GD_KT  = 0x08 // kernel text
	GD_KD  = 0x10 // kernel data
	GD_UT  = 0x18 // user text
	GD_UD  = 0x20 // user data
	GD_TSS = 0x28 // task segment selector
)

// Descriptor privilege levels.
const (
	DPL_KERN = 0
	DPL_USER = 3
)

// DR6 single-step flag (BS, "break on single step").
const DR6_BS = 0x4000

// SYSENTER machine-specific registers, programmed by EnableSep.
const (
	SYSENTER_CS_MSR  = 0x174
	SYSENTER_ESP_MSR = 0x175
	SYSENTER_EIP_MSR = 0x176
)

// Hardware is the capability the trap core holds over privileged
// processor state. Machine implements it with a software model;
// tests may substitute their own.
type Hardware interface {
	Rcr2() uint32 // faulting linear address of the last page fault
	Rdr6() uint32 // debug status register
	Ldr6(v uint32)
	Lidt(pd *Pseudodesc) // load the interrupt descriptor table register
	Ltr(sel uint16)      // load the task register
	Wrmsr(msr uint32, lo uint32, hi uint32)
}
