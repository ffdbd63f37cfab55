package main

import "minios/kernel/kmain"

// bootInfoPtr is the kernel-virtual address of the BootInfo record (§6)
// the UEFI rt0 stub built before jumping here. Kept as a package global
// for the same reason boot_amd64.go's copy is: it keeps the compiler from
// inlining main and eliminating the call to Kmain.
var bootInfoPtr uintptr

// main is the only Go symbol visible to the rt0 assembly stub. It runs
// after the stub has dropped out of UEFI boot services and set up a
// minimal g0 so Go code can use the small stack the stub allocated.
//
// main is not expected to return. If it does, the rt0 code halts the CPU.
func main() {
	kmain.Kmain(bootInfoPtr)
}
