package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	hclog "github.com/hashicorp/go-hclog"
	yaml "gopkg.in/yaml.v2"

	"jos-in-go/kernel"
)

type bootConfig struct {
	Sep      bool   `yaml:"sep"`       // program the SYSENTER fast path
	Color    bool   `yaml:"color"`     // colored monitor output
	LogLevel string `yaml:"log_level"` // trace, debug, info, warn, error
	Monitor  bool   `yaml:"monitor"`   // interactive monitor on breakpoints
	History  string `yaml:"history"`   // monitor command history file
}

func defaultConfig() bootConfig {
	return bootConfig{
		Sep:      true,
		Color:    true,
		LogLevel: "info",
		Monitor:  true,
		History:  ".jos_history",
	}
}

func loadConfig(path string) (bootConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %v", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "boot configuration (yaml)")
	batch := flag.Bool("batch", false, "never drop into the interactive monitor")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *batch {
		cfg.Monitor = false
	}
	if !cfg.Color {
		color.NoColor = true
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "jos",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	mach := kernel.NewMachine()
	cons := kernel.NewConsole(os.Stdout)
	envs := kernel.NewEnvTable(log.Named("env"))
	sys := kernel.NewSyscallTable(log.Named("syscall"), cons, envs)
	mon := &monitor{
		mach:        mach,
		log:         log.Named("monitor"),
		interactive: cfg.Monitor,
		history:     cfg.History,
	}

	k := kernel.New(mach, cons, log, envs, sys.Dispatch, mon)
	mon.k = k

	cons.Printf("idt_init...  ")
	k.IdtInit()
	cons.Printf("OK\n")

	if cfg.Sep {
		cons.Printf("enable_sep...  ")
		k.EnableSep()
		cons.Printf("OK\n")
	}

	// Two demonstration environments: one well behaved, one destroyed
	// for touching memory it does not have.
	envs.Alloc("hello", func(e *kernel.Env) {
		for _, c := range "hello, world\n" {
			trapUser(k, envs, kernel.T_SYSCALL, kernel.PushRegs{
				Eax: kernel.SYS_cputc, Edx: uint32(c),
			})
		}
		id := trapUser(k, envs, kernel.T_SYSCALL, kernel.PushRegs{Eax: kernel.SYS_getenvid})
		cons.Printf("env %08x checking in\n", id)

		// int3: hand control to the monitor
		trapUser(k, envs, kernel.T_BRKPT, kernel.PushRegs{})

		trapUser(k, envs, kernel.T_SYSCALL, kernel.PushRegs{Eax: kernel.SYS_env_destroy})
	})
	envs.Alloc("faulter", func(e *kernel.Env) {
		mach.SetCr2(0xdeadbee0)
		trapUser(k, envs, kernel.T_PGFLT, kernel.PushRegs{})
	})

	envs.Sched()
	log.Info("powering off")
}

// trapUser raises one trap out of the current environment's user
// code: it builds the frame the entry stub would have pushed and
// hands it to the kernel. A system call result comes back in the
// persisted frame's eax, the copy the environment resumes from.
func trapUser(k *kernel.Kernel, envs *kernel.EnvTable, trapno uint32, regs kernel.PushRegs) uint32 {
	tf := &kernel.Trapframe{
		Regs:   regs,
		Es:     kernel.GD_UD | 3,
		Ds:     kernel.GD_UD | 3,
		Trapno: trapno,
		Eip:    0x00800020,
		Cs:     kernel.GD_UT | 3,
		Eflags: 0x202,
		Esp:    0xeebfdfd0,
		Ss:     kernel.GD_UD | 3,
	}
	k.Trap(tf)
	return envs.Curenv().Tf.Regs.Eax
}
