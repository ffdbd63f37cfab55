package vmm

import (
	"minios/kernel"
	"minios/kernel/boot"
	"minios/kernel/mm"
)

// Init builds the kernel's permanent address space: an identity mapping
// over every Usable region (so physical frames remain directly accessible
// once translation is enabled, per directAccess's contract) plus the
// kernel image itself mapped read-write-execute at its load address.
//
// The teacher's setupPDTForKernel walks ELF section headers to give code
// sections RX and data sections RW+NX individually; BootInfo (§6) carries
// only a single KernelLoadBase/KernelSize span with no section table, so
// this port maps the whole image RW+Execute as one region instead. That
// loosening of the §4.2 "code pages never writable" invariant for the
// kernel's own image is recorded as an open decision in DESIGN.md.
func Init(memoryMap []boot.MemoryMapEntry, kernelLoadBase uintptr, kernelSize uint64) *kernel.Error {
	space, err := NewAddressSpace()
	if err != nil {
		return err
	}

	for _, region := range memoryMap {
		if region.Kind != boot.RegionUsable {
			continue
		}
		startFrame := mm.FrameFromAddress(uintptr(region.Base))
		if err := IdentityMapRegion(&space, startFrame, uintptr(region.Length), AttrWrite); err != nil {
			return err
		}
	}

	kernelStartFrame := mm.FrameFromAddress(kernelLoadBase)
	if err := IdentityMapRegion(&space, kernelStartFrame, uintptr(kernelSize), AttrWrite|AttrExecute); err != nil {
		return err
	}

	KernelSpace = space
	return nil
}

// Enable installs KernelSpace as the active address space.
func Enable() { KernelSpace.Enable() }
