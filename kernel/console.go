package kernel

import (
	"fmt"
	"io"
)

// Console is the kernel's diagnostic output device. Everything the
// trap code prints - fault banners, trapframe dumps, panics - goes
// through here, in a fixed layout external tooling can scrape.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) Putc(b byte) {
	c.w.Write([]byte{b})
}
