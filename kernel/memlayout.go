package kernel

// Virtual memory layout
// a go version of inc/memlayout.h

// The kernel owns the top of the address space:
//
//  4 Gig -------->  +------------------------------+
//                   |     remapped physical mem    |
//  KSTACKTOP ---->  +------------------------------+  0xf0000000
//                   |       kernel stack           |  KSTKSIZE
//                   +------------------------------+
//                   |  - - - invalid memory - - -  |
//  ULIM ---------> +------------------------------+  0xef800000
//                   |       user program area      |
//  0 ------------>  +------------------------------+
//
// There is a single kernel stack, rooted at KSTACKTOP. The kernel is
// not re-entrant, so one stack is all any trap ever needs.

const PGSIZE = 4096

const (
	KERNBASE  = 0xf0000000
	KSTACKTOP = KERNBASE
	KSTKSIZE  = 8 * PGSIZE

	ULIM = 0xef800000
)
