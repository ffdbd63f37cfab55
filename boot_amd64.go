package main

import "minios/kernel/kmain"

// bootInfoPtr is the kernel-virtual address of the BootInfo record (§6)
// the Multiboot2 rt0 stub built before jumping here. It is a package
// global, rather than a local the stub writes straight into a register
// argument, so the Go compiler cannot inline main away and drop the only
// reference to Kmain from the generated object file.
var bootInfoPtr uintptr

// main is the only Go symbol visible to the rt0 assembly stub. It runs
// after the stub has set up a GPR-only long-mode environment and a
// minimal g0 so Go code can use the small stack the stub allocated.
//
// main is not expected to return. If it does, the rt0 code halts the CPU.
func main() {
	kmain.Kmain(bootInfoPtr)
}
