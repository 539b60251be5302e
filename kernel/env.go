package kernel

// Environments: the unit of execution whose context the trap code
// saves and restores.

import (
	hclog "github.com/hashicorp/go-hclog"
)

const NENV = 8

type EnvID uint32

type EnvStatus int

const (
	ENV_FREE         EnvStatus = iota // 0
	ENV_RUNNABLE                      // 1
	ENV_NOT_RUNNABLE                  // 2
)

// Env is the per-environment control block. The trap code needs the
// identity, the run status and the saved trapframe; everything else
// belongs to the environment manager.
type Env struct {
	Tf     Trapframe // saved registers, written when a trap leaves user mode
	Id     EnvID
	Status EnvStatus

	name string
	task func(e *Env) // hosted stand-in for the environment's user code
}

func (e *Env) Name() string { return e.name }

// envGone unwinds to Sched when the current environment is destroyed:
// there is nothing to return to below it.
type envGone struct{}

// EnvTable is a fixed-size environment table implementing EnvManager.
type EnvTable struct {
	envs   [NENV]Env
	curenv *Env
	nextid EnvID
	log    hclog.Logger
}

func NewEnvTable(log hclog.Logger) *EnvTable {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &EnvTable{nextid: 0x1000, log: log}
}

func (et *EnvTable) Curenv() *Env { return et.curenv }

// Alloc takes a free slot for a new runnable environment. Returns nil
// when the table is full.
func (et *EnvTable) Alloc(name string, task func(e *Env)) *Env {
	for i := range et.envs {
		e := &et.envs[i]
		if e.Status != ENV_FREE {
			continue
		}
		e.Id = et.nextid
		et.nextid++
		e.Status = ENV_RUNNABLE
		e.name = name
		e.task = task
		e.Tf = Trapframe{}
		et.log.Debug("env allocated", "id", uint32(e.Id), "name", name)
		return e
	}
	return nil
}

// Lookup resolves an environment id; id 0 means the current
// environment.
func (et *EnvTable) Lookup(id EnvID) *Env {
	if id == 0 {
		return et.curenv
	}
	for i := range et.envs {
		e := &et.envs[i]
		if e.Status != ENV_FREE && e.Id == id {
			return e
		}
	}
	return nil
}

// Destroy frees e. Destroying the current environment leaves nothing
// to return to, so this unwinds to the scheduler instead of coming
// back to the caller.
func (et *EnvTable) Destroy(e *Env) {
	et.log.Info("env destroyed", "id", uint32(e.Id), "name", e.name)
	e.Status = ENV_FREE
	e.task = nil
	if e == et.curenv {
		et.curenv = nil
		panic(envGone{})
	}
}

// Run resumes e, the environment that just trapped. On real hardware
// this reloads e.Tf and irets; hosted, the environment's activation
// is still live below the trap, so returning from the trap is the
// resume. Fresh environments are entered through Sched instead.
func (et *EnvTable) Run(e *Env) {
	if e.Status != ENV_RUNNABLE {
		panic("env_run: environment not runnable")
	}
	if e != et.curenv {
		panic("env_run: not the current environment")
	}
}

// Sched is the boot sequence's final call: enter environments until
// none are runnable. Each entry runs until the environment exits or
// is destroyed.
func (et *EnvTable) Sched() {
	for {
		var next *Env
		for i := range et.envs {
			if et.envs[i].Status == ENV_RUNNABLE {
				next = &et.envs[i]
				break
			}
		}
		if next == nil {
			et.log.Info("no runnable environments")
			return
		}
		et.enter(next)
	}
}

func (et *EnvTable) enter(e *Env) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(envGone); ok {
				return // the environment was destroyed under us
			}
			panic(r)
		}
	}()

	et.curenv = e
	if e.task != nil {
		e.task(e)
	}
	if e.Status != ENV_FREE {
		// the task ran off its end: an implicit exit
		et.Destroy(e)
	}
}
