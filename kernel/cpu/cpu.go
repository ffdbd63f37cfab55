// Package cpu wraps the privileged instructions each architecture needs
// during boot and while servicing interrupts: enabling/disabling IRQs,
// flushing TLB entries, switching the active page-table root and
// halting. The primitives themselves (EnableInterrupts, Halt, …) are
// declared without a body in the per-architecture cpu_$GOARCH.go file and
// implemented in the sibling cpu_$GOARCH.s, the same "declare in Go,
// implement in asm" split the teacher uses for its IDT and CPUID
// wrappers.
package cpu

// IrqDisable begins a critical section: interrupts are masked and the
// prior state is returned for IrqRestore. Critical sections guarding
// shared kernel state (§5) must be short and must never block or yield.
func IrqDisable() (prev bool) {
	return DisableInterrupts()
}

// IrqRestore ends a critical section started with IrqDisable.
func IrqRestore(prev bool) {
	RestoreInterrupts(prev)
}
