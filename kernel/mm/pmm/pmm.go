// Package pmm implements the physical frame allocator (§4.1): a two-stage
// bring-up (a linear bootmem allocator hands out the frames the bitmap
// needs for its own storage, then a BitmapAllocator takes over for the
// rest of the kernel's life) grounded on the teacher's own
// bootMemAllocator → bitmapAllocator handoff in kernel/mm/pmm/pmm.go.
package pmm

import (
	"minios/kernel"
	"minios/kernel/boot"
	"minios/kernel/mm"
)

var (
	bootAllocator    bootmemAllocator
	bitmap   BitmapAllocator
	errNoMem = kernel.NewError("pmm", kernel.ErrInvalidArgument, "boot info has no usable memory regions")
)

// Init brings up the frame allocator over the Usable regions in
// memoryMap, pre-reserving [kernelStart, kernelEnd) for the running
// kernel image.
func Init(memoryMap []boot.MemoryMapEntry, kernelStart, kernelEnd mm.Frame) *kernel.Error {
	base, end, ok := usableRegion(memoryMap)
	if !ok {
		return errNoMem
	}
	bootAllocator.init(base, end, kernelStart, kernelEnd)

	bootAlloc := func() (mm.Frame, *kernel.Error) {
		return bootAllocator.allocFrame(kernelStart, kernelEnd)
	}
	mm.SetFrameAllocator(bootAlloc)

	if err := bitmap.Init(memoryMap, kernelStart, kernelEnd, bootAlloc); err != nil {
		return err
	}

	mm.SetFrameAllocator(bitmap.AllocFrame)
	return nil
}

// AllocContiguous allocates n consecutive frames from the steady-state
// allocator.
func AllocContiguous(n int) (mm.Frame, *kernel.Error) { return bitmap.AllocContiguous(n) }

// FreeFrame returns a frame to the steady-state allocator.
func FreeFrame(p mm.Frame) { bitmap.FreeFrame(p) }

// Stats reports the steady-state allocator's frame counters.
func Stats() FrameStats { return bitmap.Stats() }
