package kernel

// Machine is a software model of the privileged register file of one
// x86 processor: the fault-address and debug-status registers, the
// descriptor-table and task registers, and the model-specific
// registers. It is the hosted stand-in for the real instructions the
// trap code would otherwise issue, and it is where tests and the
// front-end inject faults.
type Machine struct {
	cr2 uint32
	dr6 uint32

	idt *Pseudodesc
	tr  uint16

	msr map[uint32]uint64
}

func NewMachine() *Machine {
	return &Machine{msr: make(map[uint32]uint64)}
}

func (m *Machine) Rcr2() uint32        { return m.cr2 }
func (m *Machine) Rdr6() uint32        { return m.dr6 }
func (m *Machine) Ldr6(v uint32)       { m.dr6 = v }
func (m *Machine) Lidt(pd *Pseudodesc) { m.idt = pd }
func (m *Machine) Ltr(sel uint16)      { m.tr = sel }

func (m *Machine) Wrmsr(msr uint32, lo uint32, hi uint32) {
	m.msr[msr] = uint64(hi)<<32 | uint64(lo)
}

// Fault injection and inspection for the front-end and for tests.

// SetCr2 plants a faulting address, as the MMU does on a page fault.
func (m *Machine) SetCr2(va uint32) { m.cr2 = va }

// RaiseSingleStep sets the BS flag, as the processor does after
// executing one instruction with TF set.
func (m *Machine) RaiseSingleStep() { m.dr6 |= DR6_BS }

func (m *Machine) IDT() *Pseudodesc    { return m.idt }
func (m *Machine) TR() uint16          { return m.tr }
func (m *Machine) Msr(r uint32) uint64 { return m.msr[r] }

// Trap entry stubs. trapentry.S lays the stubs out at fixed intervals
// in kernel text, one per vector, with the fast syscall entry after
// the last one.
const (
	vectorBase    = KERNBASE + 0x100000
	vectorStride  = 16
	sysenterEntry = vectorBase + 256*vectorStride
)

// vectors[i] is the entry stub address for vector i, known at build
// time exactly as the symbol table knows it.
var vectors [256]uint32

func init() {
	for i := range vectors {
		vectors[i] = uint32(vectorBase + i*vectorStride)
	}
}
