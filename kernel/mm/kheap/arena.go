package kheap

import (
	"unsafe"

	"minios/kernel"
)

// arena is the kernel's single heap backing store: a fixed-size BSS
// array, 16-byte aligned by construction (Go lays out package-level
// arrays without padding gaps smaller than the element's own alignment,
// and a byte array's first element is guaranteed word-aligned by the
// linker; Alloc further rounds every allocation up to Alignment so no
// caller ever depends on the arena's own starting alignment being
// anything stronger than that).
var arena [MinCapacity]byte

var kernelHeap Heap

// Init binds the package-level kernel heap to its backing arena. Called
// once during kernel init, before any other subsystem calls Kmalloc.
func Init() {
	kernelHeap.Init(uintptr(unsafe.Pointer(&arena[0])), uintptr(len(arena)))
}

// Kmalloc allocates n bytes from the kernel heap, rounded up to
// Alignment. Returns OutOfMemory once the arena is exhausted.
func Kmalloc(n uintptr) (uintptr, *kernel.Error) {
	return kernelHeap.Alloc(n)
}

// Kfree is accepted and ignored.
func Kfree(addr uintptr) { kernelHeap.Free(addr) }

// Stats mirrors pmm.Stats for the heap: used/capacity in bytes.
func Stats() (used, capacity uintptr) {
	return kernelHeap.Used(), kernelHeap.Capacity()
}
