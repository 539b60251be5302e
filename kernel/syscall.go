package kernel

// System call dispatch, table-driven by call number.

import (
	hclog "github.com/hashicorp/go-hclog"
)

// System call numbers.
const (
	SYS_cputc = iota
	SYS_cgetc
	SYS_getenvid
	SYS_env_destroy
	NSYSCALLS
)

// Error returns, negated on the way out.
const (
	E_UNSPECIFIED = 1
	E_BAD_ENV     = 2
	E_INVAL       = 3
)

// SyscallHandler services one call. Arguments are the five saved user
// registers after the call number.
type SyscallHandler func(log hclog.Logger, a1, a2, a3, a4, a5 uint32) int32

// SyscallTable dispatches system calls by number. The handlers slots
// are filled once at construction and never rewritten.
type SyscallTable struct {
	log      hclog.Logger
	cons     *Console
	envs     *EnvTable
	handlers [NSYSCALLS]SyscallHandler
}

func NewSyscallTable(log hclog.Logger, cons *Console, envs *EnvTable) *SyscallTable {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	st := &SyscallTable{log: log, cons: cons, envs: envs}
	st.handlers[SYS_cputc] = st.sysCputc
	st.handlers[SYS_cgetc] = st.sysCgetc
	st.handlers[SYS_getenvid] = st.sysGetenvid
	st.handlers[SYS_env_destroy] = st.sysEnvDestroy
	return st
}

// Dispatch is the SyscallFn the trap core invokes.
func (st *SyscallTable) Dispatch(num, a1, a2, a3, a4, a5 uint32) int32 {
	if num >= NSYSCALLS || st.handlers[num] == nil {
		st.log.Warn("bad system call", "num", num)
		return -E_INVAL
	}
	return st.handlers[num](st.log, a1, a2, a3, a4, a5)
}

// Print a character on the console.
func (st *SyscallTable) sysCputc(log hclog.Logger, a1, a2, a3, a4, a5 uint32) int32 {
	st.cons.Putc(byte(a1))
	return 0
}

// Read a character. There is no input device in the hosted model.
func (st *SyscallTable) sysCgetc(log hclog.Logger, a1, a2, a3, a4, a5 uint32) int32 {
	return 0
}

// Return the current environment's id.
func (st *SyscallTable) sysGetenvid(log hclog.Logger, a1, a2, a3, a4, a5 uint32) int32 {
	e := st.envs.Curenv()
	if e == nil {
		return -E_BAD_ENV
	}
	return int32(e.Id)
}

// Destroy the environment named by a1 (0 means the caller). When the
// caller destroys itself this does not return.
func (st *SyscallTable) sysEnvDestroy(log hclog.Logger, a1, a2, a3, a4, a5 uint32) int32 {
	e := st.envs.Lookup(EnvID(a1))
	if e == nil {
		return -E_BAD_ENV
	}
	log.Debug("env_destroy", "id", uint32(e.Id))
	st.envs.Destroy(e)
	return 0
}
