package pmm

import (
	"sync/atomic"

	"minios/kernel"
	"minios/kernel/boot"
	"minios/kernel/cpu"
	"minios/kernel/mm"
)

var (
	errOutOfMemory    = kernel.NewError("pmm", kernel.ErrOutOfMemory, "no free physical frames")
	errInvalidArgZero = kernel.NewError("pmm", kernel.ErrInvalidArgument, "alloc_contiguous requires n > 0")
)

// BitmapAllocator owns every Usable frame in [minFrame, maxFrame) that is
// not pre-claimed by Reserved/BadMemory/KernelImage/BootloaderReclaimable
// regions or by the bitmap's own backing storage, and vends/reclaims
// page-aligned physical frames (§4.1). One bit per managed frame; a set
// bit means the frame is in use.
//
// Policy is first-fit from a rolling cursor with no coalescing — every
// unit is exactly one frame, or an explicit contiguous run requested via
// AllocContiguous.
type BitmapAllocator struct {
	bits     []uint64
	minFrame mm.Frame
	maxFrame mm.Frame
	cursor   int // bit index, relative to minFrame, where the next scan starts

	total uint64
	used  uint64
}

// Init builds the bitmap over the full usable physical range described by
// memoryMap, pre-marking Reserved/BadMemory/KernelImage/
// BootloaderReclaimable frames (and the bitmap's own backing frames, via
// bootAlloc) as used. kernelStart/kernelEnd bound the currently running
// kernel image in frame units.
func (a *BitmapAllocator) Init(memoryMap []boot.MemoryMapEntry, kernelStart, kernelEnd mm.Frame, bootAlloc func() (mm.Frame, *kernel.Error)) *kernel.Error {
	var minFrame, maxFrame mm.Frame = mm.InvalidFrame, 0
	for _, e := range memoryMap {
		if e.Kind != boot.RegionUsable {
			continue
		}
		lo := mm.FrameFromAddress(uintptr(e.Base))
		hi := mm.Frame((e.End() + uint64(mm.PageSize) - 1) / uint64(mm.PageSize))
		if !minFrame.Valid() || lo < minFrame {
			minFrame = lo
		}
		if hi > maxFrame {
			maxFrame = hi
		}
	}
	if !minFrame.Valid() || maxFrame <= minFrame {
		return kernel.NewError("pmm", kernel.ErrInvalidArgument, "no usable memory regions in boot info")
	}

	a.minFrame = minFrame
	a.maxFrame = maxFrame
	frameCount := uint64(maxFrame - minFrame)
	wordCount := (frameCount + 63) / 64

	// The bitmap's own backing storage must itself live in already-
	// allocated physical frames, handed out by the bootstrap allocator;
	// everything else in this Init runs against a bitmap that does not
	// exist yet, so no bit-twiddling happens before this loop completes.
	words := make([]uint64, wordCount)
	bitmapFrames := (wordCount*8 + uint64(mm.PageSize) - 1) / uint64(mm.PageSize)
	for i := uint64(0); i < bitmapFrames; i++ {
		if _, err := bootAlloc(); err != nil {
			return err
		}
	}
	a.bits = words
	a.total = frameCount

	// Pre-mark everything not Usable, plus the kernel image and the
	// frames we just spent on the bitmap itself.
	for _, e := range memoryMap {
		if e.Kind == boot.RegionUsable {
			continue
		}
		a.markRangeUsed(mm.FrameFromAddress(uintptr(e.Base)), mm.Frame((e.End()+uint64(mm.PageSize)-1)/uint64(mm.PageSize)))
	}
	a.markRangeUsed(kernelStart, kernelEnd)
	a.markRangeUsed(minFrame, minFrame+mm.Frame(bitmapFrames))

	return nil
}

func (a *BitmapAllocator) markRangeUsed(lo, hi mm.Frame) {
	if hi <= lo {
		return
	}
	if lo < a.minFrame {
		lo = a.minFrame
	}
	if hi > a.maxFrame {
		hi = a.maxFrame
	}
	for f := lo; f < hi; f++ {
		idx := int(f - a.minFrame)
		if !a.testBit(idx) {
			a.setBit(idx)
			a.used++
		}
	}
}

func (a *BitmapAllocator) testBit(idx int) bool {
	return a.bits[idx/64]&(1<<uint(idx%64)) != 0
}

func (a *BitmapAllocator) setBit(idx int) {
	a.bits[idx/64] |= 1 << uint(idx%64)
}

func (a *BitmapAllocator) clearBit(idx int) {
	a.bits[idx/64] &^= 1 << uint(idx%64)
}

// AllocFrame scans for the first free bit starting at the rolling cursor,
// flips it and returns the frame. Determinism: the same sequence of
// alloc/free calls from a given initial state always produces the same
// addresses, since the scan order and cursor advance are both
// deterministic.
func (a *BitmapAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	bitCount := int(a.total)
	for i := 0; i < bitCount; i++ {
		idx := (a.cursor + i) % bitCount
		if !a.testBit(idx) {
			a.setBit(idx)
			a.used++
			a.cursor = idx + 1
			return a.minFrame + mm.Frame(idx), nil
		}
	}
	return mm.InvalidFrame, errOutOfMemory
}

// AllocContiguous scans for a run of n consecutive free bits and marks
// them all used as a single uninterruptible (interrupts-disabled)
// section. Returns OutOfMemory if no run of that length exists — in
// particular if the largest free run is exactly n-1.
func (a *BitmapAllocator) AllocContiguous(n int) (mm.Frame, *kernel.Error) {
	if n <= 0 {
		return mm.InvalidFrame, errInvalidArgZero
	}

	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	bitCount := int(a.total)
	run := 0
	for idx := 0; idx < bitCount; idx++ {
		if a.testBit(idx) {
			run = 0
			continue
		}
		run++
		if run == n {
			start := idx - n + 1
			for j := start; j <= idx; j++ {
				a.setBit(j)
			}
			a.used += uint64(n)
			a.cursor = idx + 1
			return a.minFrame + mm.Frame(start), nil
		}
	}
	return mm.InvalidFrame, errOutOfMemory
}

// FreeFrame clears the bit for p. Freeing a frame that is already free is
// a programming error; it is logged (via the diagnostics sink) but does
// not panic — the allocator is deliberately best-effort about double-free
// per §4.1.
func (a *BitmapAllocator) FreeFrame(p mm.Frame) {
	if p < a.minFrame || p >= a.maxFrame {
		return
	}

	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	idx := int(p - a.minFrame)
	if !a.testBit(idx) {
		logDoubleFree(p)
		return
	}
	a.clearBit(idx)
	a.used--
}

// FrameStats is the snapshot returned by Stats(): total/used/free frame
// counts.
type FrameStats struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// Stats reads the allocator's frame counters. The counters are plain
// uint64 fields updated under the same irq-disabled section as every
// mutation, so a snapshot read never needs its own lock; using
// atomic.LoadUint64 here (rather than a field copy the compiler might
// split into two loads) keeps the read itself a single aligned access —
// the same alignment discipline the design notes (§9) require of the
// kernel heap.
func (a *BitmapAllocator) Stats() FrameStats {
	total := atomic.LoadUint64(&a.total)
	used := atomic.LoadUint64(&a.used)
	return FrameStats{Total: total, Used: used, Free: total - used}
}

var doubleFreeSink func(mm.Frame)

// SetDoubleFreeSink installs the diagnostic logger invoked when FreeFrame
// observes an already-free frame.
func SetDoubleFreeSink(fn func(mm.Frame)) { doubleFreeSink = fn }

func logDoubleFree(p mm.Frame) {
	if doubleFreeSink != nil {
		doubleFreeSink(p)
	}
}
