// Package kheap implements the kernel's single bump-arena heap (§4.3): a
// fixed-capacity BSS region handed out 16-byte-aligned chunks at a time.
// kfree is accepted and ignored — there is no reclamation in the baseline
// design, trading that away for the alignment guarantee the design notes
// (§9) rely on to keep the compiler from emitting misaligned wide loads
// against kernel structures.
//
// The teacher's kernel heap does not exist yet at this point in gopheros's
// own history (its vmm package still allocates pages directly); this
// package is grounded on the same "single package-level arena guarded by
// an irq-disabled critical section" shape as kernel/mm/pmm and
// kernel/sync.Spinlock, generalized to serve kmalloc/kfree instead of
// frames.
package kheap

import (
	"minios/kernel"
	"minios/kernel/cpu"
)

// Alignment is the fixed alignment every returned block satisfies. No
// kernel field needs more than this; see the design notes (§9) on
// compiler-emitted SIMD loads against unaligned kernel structs.
const Alignment = uintptr(16)

// MinCapacity is the minimum arena size the design requires (§4.3).
const MinCapacity = 256 * 1024

var errOutOfMemory = kernel.NewError("kheap", kernel.ErrOutOfMemory, "kernel heap arena exhausted")

// Heap is a bump allocator over a caller-supplied backing region. The
// kernel keeps exactly one instance, sized at least MinCapacity, living
// in a BSS-placed byte array (see arena.go); tests use a smaller
// heap-allocated backing slice instead, which is equally valid since the
// type only needs a stable base address and length.
type Heap struct {
	base   uintptr
	size   uintptr
	cursor uintptr
}

// Init binds the heap to [base, base+size). size must be at least
// MinCapacity for the real kernel heap; tests may use a smaller region.
func (h *Heap) Init(base, size uintptr) {
	h.base = base
	h.size = size
	h.cursor = 0
}

// Alloc rounds n up to a multiple of Alignment and returns the current
// cursor as an address, advancing it. Returns OutOfMemory once the arena
// is exhausted.
func (h *Heap) Alloc(n uintptr) (uintptr, *kernel.Error) {
	if n == 0 {
		n = Alignment
	}
	aligned := (n + (Alignment - 1)) &^ (Alignment - 1)

	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	if h.cursor+aligned > h.size {
		return 0, errOutOfMemory
	}
	addr := h.base + h.cursor
	h.cursor += aligned
	return addr, nil
}

// Free is accepted and ignored; see the package doc comment.
func (h *Heap) Free(addr uintptr) {}

// Used returns the number of bytes handed out so far.
func (h *Heap) Used() uintptr { return h.cursor }

// Capacity returns the heap's total size.
func (h *Heap) Capacity() uintptr { return h.size }
