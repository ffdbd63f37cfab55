package cpu

// EnableInterrupts unmasks IRQs on the calling core (clears DAIF.I).
func EnableInterrupts()

// DisableInterrupts masks IRQs (sets DAIF.I) and reports whether they
// were previously enabled.
func DisableInterrupts() (wasEnabled bool)

// RestoreInterrupts re-enables IRQs if wasEnabled is true.
func RestoreInterrupts(wasEnabled bool)

// Halt executes WFI, stopping instruction execution until the next
// interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr (TLBI VAE1IS)
// followed by the instruction/data synchronization barriers required for
// the invalidation to be globally visible.
func FlushTLBEntry(virtAddr uintptr)

// SwitchAddressSpace loads rootFrame into TTBR0_EL1, the lower-half
// translation table base register (§4.2), and invalidates the TLB.
func SwitchAddressSpace(rootFrame uintptr)

// ActiveAddressSpace reads the current TTBR0_EL1 value.
func ActiveAddressSpace() uintptr

// ReadFAR returns the fault address recorded in FAR_EL1 by the last
// synchronous data/instruction abort.
func ReadFAR() uint64

// ReadESR returns the exception syndrome recorded in ESR_EL1.
func ReadESR() uint64

// EnableMMU programs MAIR_EL1/TCR_EL1 and sets SCTLR_EL1.M, following the
// AArch64 lowering rules in the virtual memory design (§4.2): a 4 KiB
// granule, 48-bit IPA, and two MAIR indices (Normal Write-Back Cacheable,
// Device-nGnRnE).
func EnableMMU(ttbr0, ttbr1 uintptr)
