package kernel

import (
	"testing"
)

func TestEnvAllocAndLookup(t *testing.T) {
	et := NewEnvTable(nil)

	e1 := et.Alloc("a", nil)
	e2 := et.Alloc("b", nil)
	if e1 == nil || e2 == nil {
		t.Fatal("alloc failed with free slots")
	}
	if e1.Id == e2.Id {
		t.Fatalf("duplicate env id %#x", e1.Id)
	}
	if e1.Status != ENV_RUNNABLE || e2.Status != ENV_RUNNABLE {
		t.Fatal("fresh envs not runnable")
	}
	if et.Lookup(e2.Id) != e2 {
		t.Fatal("lookup by id failed")
	}
	if et.Lookup(0) != nil {
		t.Fatal("lookup(0) found a current env before any ran")
	}
	if et.Lookup(0xffff) != nil {
		t.Fatal("lookup invented an env")
	}
}

func TestEnvTableFull(t *testing.T) {
	et := NewEnvTable(nil)
	for i := 0; i < NENV; i++ {
		if et.Alloc("e", nil) == nil {
			t.Fatalf("alloc %d failed", i)
		}
	}
	if et.Alloc("over", nil) != nil {
		t.Fatal("alloc succeeded on a full table")
	}
}

func TestEnvDestroyNonCurrentReturns(t *testing.T) {
	et := NewEnvTable(nil)
	e := et.Alloc("victim", nil)

	et.Destroy(e)

	if e.Status != ENV_FREE {
		t.Fatal("slot not freed")
	}
	if et.Lookup(e.Id) != nil {
		t.Fatal("destroyed env still resolvable")
	}
	if et.Alloc("reuse", nil) == nil {
		t.Fatal("freed slot not reusable")
	}
}

func TestEnvDestroyCurrentUnwindsToSched(t *testing.T) {
	et := NewEnvTable(nil)
	reached := false
	e := et.Alloc("suicide", func(e *Env) {
		et.Destroy(e)
		reached = true
	})

	et.Sched()

	if reached {
		t.Fatal("task continued past destroying itself")
	}
	if e.Status != ENV_FREE || et.Curenv() != nil {
		t.Fatal("destroy of current env left state behind")
	}
}

func TestSchedRunsEveryEnv(t *testing.T) {
	et := NewEnvTable(nil)
	var order []string
	et.Alloc("a", func(e *Env) { order = append(order, e.Name()) })
	et.Alloc("b", func(e *Env) { order = append(order, e.Name()) })

	et.Sched()

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
	for i := range et.envs {
		if s := et.envs[i].Status; s != ENV_FREE {
			t.Fatalf("slot %d status %d after sched", i, s)
		}
	}
}

func TestEnvRunResumesCurrent(t *testing.T) {
	et := NewEnvTable(nil)
	ok := false
	et.Alloc("self", func(e *Env) {
		// resuming the live environment returns into it
		et.Run(e)
		ok = true
	})

	et.Sched()

	if !ok {
		t.Fatal("run of current env did not return")
	}
}

func TestEnvRunRejectsNonCurrent(t *testing.T) {
	et := NewEnvTable(nil)
	e := et.Alloc("other", nil)

	mustPanic(t, "not the current environment", func() {
		et.Run(e)
	})

	et.Destroy(e)
	mustPanic(t, "not runnable", func() {
		et.Run(e)
	})
}
