package kernel

import (
	"bytes"
	"strings"
	"testing"
)

// quietMon releases control immediately, like a monitor whose
// operator always continues.
type quietMon struct{}

func (quietMon) Monitor(tf *Trapframe)   {}
func (quietMon) MonitorSS(tf *Trapframe) {}

func raise(k *Kernel, trapno uint32, regs PushRegs) {
	k.Trap(&Trapframe{
		Regs:   regs,
		Es:     GD_UD | 3,
		Ds:     GD_UD | 3,
		Trapno: trapno,
		Eip:    0x00800020,
		Cs:     GD_UT | 3,
		Eflags: 0x202,
		Esp:    0xeebfdfd0,
		Ss:     GD_UD | 3,
	})
}

// A whole life: boot, run environments that make system calls, kill
// one with a page fault, end with nothing runnable.
func TestKernelEndToEnd(t *testing.T) {
	out := &bytes.Buffer{}
	mach := NewMachine()
	cons := NewConsole(out)
	envs := NewEnvTable(nil)
	sys := NewSyscallTable(nil, cons, envs)

	k := New(mach, cons, nil, envs, sys.Dispatch, quietMon{})
	k.IdtInit()
	k.EnableSep()

	var gotid int32
	envs.Alloc("hello", func(e *Env) {
		for _, c := range "hi\n" {
			raise(k, T_SYSCALL, PushRegs{Eax: SYS_cputc, Edx: uint32(c)})
			gotid = int32(e.Tf.Regs.Eax) // result lands in the persisted frame
			if gotid != 0 {
				t.Fatalf("cputc = %d", gotid)
			}
		}
		raise(k, T_SYSCALL, PushRegs{Eax: SYS_getenvid})
		gotid = int32(e.Tf.Regs.Eax)
		raise(k, T_BRKPT, PushRegs{})
		raise(k, T_SYSCALL, PushRegs{Eax: SYS_env_destroy})
		t.Fatal("ran past env_destroy")
	})
	faulter := envs.Alloc("faulter", func(e *Env) {
		mach.SetCr2(0xdeadbee0)
		raise(k, T_PGFLT, PushRegs{})
		t.Fatal("ran past a fatal page fault")
	})

	envs.Sched()

	if !strings.HasPrefix(out.String(), "hi\n") {
		t.Fatalf("console = %q", out.String())
	}
	if gotid == 0 || gotid == -E_BAD_ENV {
		t.Fatalf("getenvid = %d", gotid)
	}
	if !strings.Contains(out.String(), "user fault va deadbee0") {
		t.Fatalf("missing fault banner in %q", out.String())
	}
	if faulter.Status != ENV_FREE {
		t.Fatal("faulter survived its page fault")
	}
	if envs.Curenv() != nil {
		t.Fatal("an environment is still current after sched drained")
	}
}
