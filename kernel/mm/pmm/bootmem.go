package pmm

import (
	"minios/kernel"
	"minios/kernel/boot"
	"minios/kernel/mm"
)

// bootmemAllocator is a linear, never-freeing allocator used only during
// early init, before the steady-state BitmapAllocator can bootstrap
// itself. It exists to resolve the chicken-and-egg problem the spec
// leaves implicit: the bitmap allocator needs frames to store its own
// bitmap, and nothing else is available yet to hand them out. Grounded on
// the teacher's two-stage pmm.Init (bootMemAllocator, then
// bitmapAllocator).
type bootmemAllocator struct {
	next  mm.Frame
	limit mm.Frame
}

var errBootmemExhausted = kernel.NewError("pmm", kernel.ErrOutOfMemory, "bootmem allocator exhausted its region")

// init configures the bootmem allocator to vend frames from the given
// usable, page-aligned physical region, skipping any frame already
// claimed by the kernel image.
func (a *bootmemAllocator) init(regionBase, regionEnd uint64, kernelStart, kernelEnd mm.Frame) {
	a.next = mm.FrameFromAddress(uintptr(regionBase))
	a.limit = mm.Frame((regionEnd + uint64(mm.PageSize) - 1) / uint64(mm.PageSize))
	if a.next >= kernelStart && a.next < kernelEnd {
		a.next = kernelEnd
	}
}

// allocFrame returns the next free frame, skipping the kernel image range
// a second time in case it advances into it mid-run (it does not, given a
// single contiguous kernel image, but the check is O(1) and keeps the
// invariant obviously true rather than merely true by construction).
func (a *bootmemAllocator) allocFrame(kernelStart, kernelEnd mm.Frame) (mm.Frame, *kernel.Error) {
	if a.next >= a.limit {
		return mm.InvalidFrame, errBootmemExhausted
	}
	f := a.next
	a.next++
	if a.next >= kernelStart && a.next < kernelEnd {
		a.next = kernelEnd
	}
	return f, nil
}

// usableRegion picks the first Usable region from the boot memory map;
// MiniOS's baseline single-region boot scenario (§8 scenario 1) only ever
// supplies one, and a richer multi-region policy is future work the
// bitmap allocator (which does understand the full map) can implement
// without bootmem needing to change.
func usableRegion(memoryMap []boot.MemoryMapEntry) (base, end uint64, ok bool) {
	for _, e := range memoryMap {
		if e.Kind == boot.RegionUsable {
			return e.Base, e.End(), true
		}
	}
	return 0, 0, false
}
