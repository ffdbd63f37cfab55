// Package mm defines the address-space-independent vocabulary shared by
// the physical frame allocator, the kernel heap and the virtual memory
// subsystem: frame/page indices and the page size they're measured in.
// It is the equivalent of the teacher's own "mm" package (kernel/mm/page.go,
// kernel/mm/mem.go), kept verbatim in shape and widened from a single
// implicit x86-64 page size to the architecture-neutral 4 KiB frame the
// spec's data model mandates for both ports.
package mm

import (
	"math"

	"minios/kernel"
)

const (
	// PageShift is log2(PageSize).
	PageShift = uintptr(12)

	// PageSize is the system's page size in bytes: 4 KiB on both
	// AArch64 (4 KiB granule) and x86-64.
	PageSize = uintptr(1) << PageShift
)

// Frame describes a physical memory frame index: physical byte range
// [i*PageSize, (i+1)*PageSize).
type Frame uintptr

// InvalidFrame is returned by allocators that fail to reserve a frame.
const InvalidFrame = Frame(math.MaxUint64)

// Valid reports whether f is a real frame rather than InvalidFrame.
func (f Frame) Valid() bool { return f != InvalidFrame }

// Address returns the physical address of the frame's first byte.
func (f Frame) Address() uintptr { return uintptr(f) << PageShift }

// FrameFromAddress rounds a physical address down to the frame that
// contains it.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr &^ (PageSize - 1)) >> PageShift)
}

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual address of the page's first byte.
func (p Page) Address() uintptr { return uintptr(p) << PageShift }

// PageFromAddress rounds a virtual address down to the page that contains
// it.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr &^ (PageSize - 1)) >> PageShift)
}

// FrameAllocatorFn allocates a single physical frame.
type FrameAllocatorFn func() (Frame, *kernel.Error)

var frameAllocator FrameAllocatorFn

// SetFrameAllocator registers the function used by AllocFrame. vmm calls
// this once pmm.Init has selected the steady-state allocator, mirroring
// the teacher's SetFrameAllocator indirection that lets vmm stay
// decoupled from whichever concrete allocator backs it.
func SetFrameAllocator(fn FrameAllocatorFn) { frameAllocator = fn }

// AllocFrame allocates a physical frame using the currently registered
// allocator.
func AllocFrame() (Frame, *kernel.Error) { return frameAllocator() }
