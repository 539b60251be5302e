package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/peterh/liner"

	"jos-in-go/kernel"
)

const monitorHelp = `monitor commands:
  help           this text
  r, registers   dump the saved registers
  frame          dump the whole trap frame
  si, step       single-step one instruction
  c, continue    resume the environment
  q, quit        power off
`

// monitor is the interactive kernel monitor, entered on breakpoint
// and single-step traps. It runs on the trap stack and returns when
// the operator releases control.
type monitor struct {
	k           *kernel.Kernel
	mach        *kernel.Machine
	log         hclog.Logger
	interactive bool
	history     string
}

func (m *monitor) Monitor(tf *kernel.Trapframe) {
	m.session("breakpoint", tf)
}

func (m *monitor) MonitorSS(tf *kernel.Trapframe) {
	m.session("single-step", tf)
}

func (m *monitor) session(kind string, tf *kernel.Trapframe) {
	if !m.interactive {
		m.log.Info("monitor entered; continuing", "kind", kind, "eip", tf.Eip)
		return
	}

	fmt.Printf("Welcome to the JOS kernel monitor (%s at eip 0x%08x)\n", kind, tf.Eip)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if m.history != "" {
		if f, err := os.Open(m.history); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(m.history); err == nil {
				ln.WriteHistory(f)
				f.Close()
			}
		}()
	}

	for {
		line, err := ln.Prompt("K> ")
		if err != nil {
			// ^C or ^D releases control back to the environment
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line != "" {
			ln.AppendHistory(line)
		}

		switch line {
		case "", "help":
			fmt.Print(monitorHelp)
		case "c", "continue":
			return
		case "si", "step":
			m.mach.RaiseSingleStep()
			return
		case "r", "registers":
			m.dumpRegs(tf)
		case "frame":
			m.k.PrintTrapframe(tf)
		case "q", "quit":
			fmt.Println("bye")
			os.Exit(0)
		default:
			fmt.Printf("unknown command %q\n", line)
		}
	}
}

func (m *monitor) dumpRegs(tf *kernel.Trapframe) {
	r := &tf.Regs
	color.New(color.FgCyan).Printf(""+
		"EAX=0x%08x "+
		"ECX=0x%08x "+
		"EDX=0x%08x "+
		"EBX=0x%08x\n"+
		"ESP=0x%08x "+
		"EBP=0x%08x "+
		"ESI=0x%08x "+
		"EDI=0x%08x\n",
		r.Eax, r.Ecx, r.Edx, r.Ebx,
		tf.Esp, r.Ebp, r.Esi, r.Edi,
	)
	color.New(color.FgGreen).Printf("EIP=0x%08x CS=0x%04x FLAG=0x%08x trap 0x%08x\n",
		tf.Eip, tf.Cs, tf.Eflags, tf.Trapno)
}
