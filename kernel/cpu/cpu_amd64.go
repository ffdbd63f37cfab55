package cpu

var cpuidFn = ID

// EnableInterrupts unmasks interrupts on the calling hart (STI).
func EnableInterrupts()

// DisableInterrupts masks interrupts (CLI) and reports whether they were
// previously enabled (tested via the saved RFLAGS.IF bit).
func DisableInterrupts() (wasEnabled bool)

// RestoreInterrupts re-enables interrupts if wasEnabled is true; otherwise
// it is a no-op, since they are already masked.
func RestoreInterrupts(wasEnabled bool)

// Halt executes HLT, stopping instruction execution until the next
// interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr via INVLPG.
func FlushTLBEntry(virtAddr uintptr)

// SwitchAddressSpace loads rootFrame into CR3, flushing the entire TLB.
func SwitchAddressSpace(rootFrame uintptr)

// ActiveAddressSpace reads the current CR3 value.
func ActiveAddressSpace() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uint64

// EnableNX sets EFER.NXE so NX-flagged page-table entries are honored, as
// required by the x86-64 lowering rules in the virtual memory design
// (§4.2).
func EnableNX()

// ID returns information about the CPU and its features. It is
// implemented as a CPUID instruction with EAX=leaf and returns the
// values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}
