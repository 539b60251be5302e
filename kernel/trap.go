package kernel

// Trap entry, dispatch and disposition.
// a go version of kern/trap.c

import (
	"unsafe"

	hclog "github.com/hashicorp/go-hclog"
)

// PushRegs is the general-purpose register block pushed by the entry
// stub, in pusha order.
type PushRegs struct {
	Edi  uint32
	Esi  uint32
	Ebp  uint32
	Oesp uint32 // useless
	Ebx  uint32
	Edx  uint32
	Ecx  uint32
	Eax  uint32
}

// Trapframe is the processor state captured at trap entry. Esp and Ss
// are pushed by hardware only when the trap crossed from user to
// kernel privilege; for kernel-mode traps they are dead fields.
type Trapframe struct {
	Regs   PushRegs
	Es     uint16
	Ds     uint16
	Trapno uint32
	Err    uint32 // error code, pushed by hardware or 0 by the stub
	Eip    uint32
	Cs     uint16
	Eflags uint32
	// below here only when crossing rings
	Esp uint32
	Ss  uint16
}

// EnvManager is the process-management collaborator. Destroying or
// running the current environment transfers control away and does not
// come back to the trap code.
type EnvManager interface {
	Curenv() *Env
	Destroy(e *Env)
	Run(e *Env)
}

// Monitor is the debugging front-end. Both entry points run on the
// trap stack and return when the operator releases control.
type Monitor interface {
	Monitor(tf *Trapframe)
	MonitorSS(tf *Trapframe)
}

// SyscallFn dispatches one system call. Arguments arrive straight
// from the saved user registers.
type SyscallFn func(num, a1, a2, a3, a4, a5 uint32) int32

// Kernel is the trap dispatch core. One instance exists for the life
// of the system; the IDT and TSS it builds are never written again
// after IdtInit.
type Kernel struct {
	hw   Hardware
	cons *Console
	log  hclog.Logger

	envs    EnvManager
	syscall SyscallFn
	mon     Monitor

	idt   [256]Gatedesc
	idtPD Pseudodesc
	gdt   [NSEGS]Segdesc
	ts    Taskstate

	inited bool
	intrap bool
}

func New(hw Hardware, cons *Console, log hclog.Logger, envs EnvManager, syscall SyscallFn, mon Monitor) *Kernel {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Kernel{
		hw:      hw,
		cons:    cons,
		log:     log,
		envs:    envs,
		syscall: syscall,
		mon:     mon,
	}
}

var excnames = [...]string{
	"Divide error",
	"Debug",
	"Non-Maskable Interrupt",
	"Breakpoint",
	"Overflow",
	"BOUND Range Exceeded",
	"Invalid Opcode",
	"Device Not Available",
	"Double Fault",
	"Coprocessor Segment Overrun",
	"Invalid TSS",
	"Segment Not Present",
	"Stack Fault",
	"General Protection",
	"Page Fault",
	"(unknown trap)",
	"x87 FPU Floating-Point Error",
	"Alignment Check",
	"Machine-Check",
	"SIMD Floating-Point Exception",
}

func trapname(trapno uint32) string {
	if trapno < uint32(len(excnames)) {
		return excnames[trapno]
	}
	if trapno == T_SYSCALL {
		return "System call"
	}
	return "(unknown trap)"
}

// IdtInit builds the interrupt descriptor table and the task state
// once at boot, then loads both into the processor. There is only one
// kernel stack, so the kernel is not re-entrant (cannot be
// interrupted): all IDT entries are interrupt gates.
func (k *Kernel) IdtInit() {
	if k.inited {
		panic("idt_init: already initialized")
	}

	for i := range k.idt {
		switch i {
		// enable "int 3" and the system call for user space
		case T_BRKPT, T_SYSCALL:
			Setgate(&k.idt[i], false, GD_KT, vectors[i], DPL_USER)
		default:
			Setgate(&k.idt[i], false, GD_KT, vectors[i], DPL_KERN)
		}
	}

	// Setup a TSS so that we get the right stack
	// when we trap to the kernel.
	k.ts.Esp0 = KSTACKTOP
	k.ts.Ss0 = GD_KD

	// Initialize the TSS slot of the gdt.
	k.gdt[GD_TSS>>3] = Segdesc{
		Base: uintptr(unsafe.Pointer(&k.ts)),
		Lim:  uint32(unsafe.Sizeof(k.ts)),
		Type: STS_T32A,
		S:    false,
		Dpl:  DPL_KERN,
		P:    true,
	}

	k.hw.Ltr(GD_TSS)

	k.idtPD = Pseudodesc{Lim: uint16(len(k.idt)*8 - 1), Base: &k.idt}
	k.hw.Lidt(&k.idtPD)

	k.inited = true
}

// EnableSep programs the SYSENTER machine registers for the fast
// system call path. Targets without it simply never call this.
func (k *Kernel) EnableSep() {
	k.hw.Wrmsr(SYSENTER_CS_MSR, GD_KT, 0)
	k.hw.Wrmsr(SYSENTER_ESP_MSR, KSTACKTOP, 0)
	k.hw.Wrmsr(SYSENTER_EIP_MSR, sysenterEntry, 0)
}

// PrintTrapframe renders tf on the console.
func (k *Kernel) PrintTrapframe(tf *Trapframe) {
	k.cons.Printf("TRAP frame at %p\n", tf)
	k.printRegs(&tf.Regs)
	k.cons.Printf("  es   0x----%04x\n", tf.Es)
	k.cons.Printf("  ds   0x----%04x\n", tf.Ds)
	k.cons.Printf("  trap 0x%08x %s\n", tf.Trapno, trapname(tf.Trapno))
	k.cons.Printf("  err  0x%08x\n", tf.Err)
	k.cons.Printf("  eip  0x%08x\n", tf.Eip)
	k.cons.Printf("  cs   0x----%04x\n", tf.Cs)
	k.cons.Printf("  flag 0x%08x\n", tf.Eflags)
	k.cons.Printf("  esp  0x%08x\n", tf.Esp)
	k.cons.Printf("  ss   0x----%04x\n", tf.Ss)
}

func (k *Kernel) printRegs(regs *PushRegs) {
	k.cons.Printf("  edi  0x%08x\n", regs.Edi)
	k.cons.Printf("  esi  0x%08x\n", regs.Esi)
	k.cons.Printf("  ebp  0x%08x\n", regs.Ebp)
	k.cons.Printf("  oesp 0x%08x\n", regs.Oesp)
	k.cons.Printf("  ebx  0x%08x\n", regs.Ebx)
	k.cons.Printf("  edx  0x%08x\n", regs.Edx)
	k.cons.Printf("  ecx  0x%08x\n", regs.Ecx)
	k.cons.Printf("  eax  0x%08x\n", regs.Eax)
}

func (k *Kernel) trapDispatch(tf *Trapframe) {
	switch tf.Trapno {
	case T_PGFLT:
		k.pageFaultHandler(tf)

	case T_BRKPT:
		k.mon.Monitor(tf)

	case T_DEBUG:
		k.mon.MonitorSS(tf)

	case T_SYSCALL:
		regs := &tf.Regs
		ret := k.syscall(regs.Eax, regs.Edx, regs.Ecx, regs.Ebx, regs.Edi, regs.Esi)
		regs.Eax = uint32(ret)

	default:
		// Unexpected trap: the user process or the kernel has a bug.
		k.PrintTrapframe(tf)
		if tf.Cs == GD_KT {
			k.panic("unhandled trap in kernel")
		} else {
			k.envs.Destroy(k.envs.Curenv())
		}
	}
}

func (k *Kernel) singleStepEnabled() bool {
	dr6 := k.hw.Rdr6()
	if dr6&DR6_BS != 0 {
		// clear on read, or the next query would trigger again
		k.hw.Ldr6(dr6 &^ DR6_BS)
		return true
	}
	return false
}

// Trap is the sole entry point, called by the hardware entry stubs
// with the frame they assembled. It never reports an error to its
// caller: every trap ends in a resumed environment, a destroyed
// environment, or a halted kernel.
func (k *Kernel) Trap(tf *Trapframe) {
	// One kernel stack and interrupt gates everywhere: a nested trap
	// cannot happen. Assert it rather than assume it. The deferred
	// clear also covers the unwind when the current environment is
	// destroyed out from under the dispatch.
	if k.intrap {
		panic("trap: re-entered")
	}
	k.intrap = true
	defer func() { k.intrap = false }()

	k.log.Debug("incoming trap frame",
		"trap", tf.Trapno, "name", trapname(tf.Trapno), "eip", tf.Eip)

	if tf.Cs&3 == 3 {
		// Trapped from user mode.
		// Copy the stack-resident frame into curenv, so that running
		// the environment will restart at the trap point.
		curenv := k.envs.Curenv()
		if curenv == nil {
			panic("trap: no current environment")
		}
		curenv.Tf = *tf
		// The trapframe on the stack should be ignored from here on.
		tf = &curenv.Tf
	}

	k.trapDispatch(tf)

	if k.singleStepEnabled() {
		return
	}

	// Return to the current environment, which should be runnable.
	curenv := k.envs.Curenv()
	if curenv == nil || curenv.Status != ENV_RUNNABLE {
		panic("trap: current environment not runnable")
	}
	k.envs.Run(curenv)
}

func (k *Kernel) pageFaultHandler(tf *Trapframe) {
	// Read processor's CR2 register to find the faulting address.
	faultVa := k.hw.Rcr2()

	var id EnvID
	if e := k.envs.Curenv(); e != nil {
		id = e.Id
	}
	k.cons.Printf("[%08x] user fault va %08x ip %08x\n", uint32(id), faultVa, tf.Eip)
	k.PrintTrapframe(tf)

	// A page fault in the kernel is always a kernel bug.
	if tf.Cs == GD_KT {
		k.panic("Page fault in kernel")
	}

	// No demand paging here: destroy the environment that faulted.
	k.envs.Destroy(k.envs.Curenv())
}

// panic prints the message on the console and halts the system. It
// never returns; hosted, the halt is a Go panic so the harness around
// the kernel can observe it.
func (k *Kernel) panic(format string, args ...interface{}) {
	k.cons.Printf("kernel panic: "+format+"\n", args...)
	panic("kernel panic")
}
